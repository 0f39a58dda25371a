package sensor

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"thermal-map-go/internal/types"
)

// ErrNoFrame is returned before the bridge has received its first frame of
// the requested kind.
var ErrNoFrame = errors.New("no frame received yet")

// Recorder receives every raw wire payload, for capture logging.
type Recorder interface {
	Record(payload []byte) error
}

// Bridge consumes CBOR messages published by the camera device over a ZMQ
// PUSH socket and keeps the latest thermal and visible frames. Expected
// messages:
//
//	{ "type": "thermal", "frame_id": <int>, "start_time": <float>,
//	  "data": <tag 40, rows x cols, float32/uint16/uint8> }
//	{ "type": "visible", "frame_id": <int>,
//	  "data": <tag 40, height x width, uint16> }
//	{ "type": "start" | "end", "meta": { ... } }
//
// The bridge satisfies both the sensor and camera Source contracts; reads
// copy out of the latest-frame buffers, so the loop never blocks on the bus.
type Bridge struct {
	rows, cols    int
	width, height int
	logEvery      int
	recorder      Recorder

	mu          sync.RWMutex
	thermal     *types.SensorFrame
	visible     *types.Framebuffer
	haveThermal bool
	haveVisible bool
	sessionMeta map[string]any
	lastIngest  time.Time
	lastCapture float64

	thermalFrames  atomic.Uint64
	visibleFrames  atomic.Uint64
	metaMessages   atomic.Uint64
	decodeFailures atomic.Uint64

	logCounter atomic.Int64
}

// Dial connects to the device bridge endpoint and starts the receive loop.
// The loop stops when ctx is canceled.
func Dial(ctx context.Context, endpoint string, rows, cols, width, height, logEvery int, recorder Recorder) (*Bridge, error) {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return nil, err
	}
	if err := socket.Connect(endpoint); err != nil {
		_ = socket.Close()
		return nil, err
	}
	if logEvery < 1 {
		logEvery = 1
	}

	b := &Bridge{
		rows:     rows,
		cols:     cols,
		width:    width,
		height:   height,
		logEvery: logEvery,
		recorder: recorder,
		thermal:  types.NewSensorFrame(rows, cols),
		visible:  types.NewFramebuffer(width, height),
	}

	go b.receive(ctx, socket)
	return b, nil
}

func (b *Bridge) receive(ctx context.Context, socket *zmq4.Socket) {
	defer socket.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := socket.RecvBytes(0)
		if err != nil {
			b.logEveryN("bridge recv error: %v", err)
			continue
		}
		if b.recorder != nil {
			if err := b.recorder.Record(msg); err != nil {
				b.logEveryN("bridge record error: %v", err)
			}
		}
		if !b.handleMessage(msg) {
			b.decodeFailures.Add(1)
		}
	}
}

func (b *Bridge) handleMessage(msg []byte) bool {
	var payload map[string]any
	if err := cbor.Unmarshal(msg, &payload); err != nil {
		b.logEveryN("bridge CBOR decode error: %v", err)
		return false
	}

	msgType, _ := payload["type"].(string)
	switch msgType {
	case "thermal":
		return b.handleThermal(payload)
	case "visible":
		return b.handleVisible(payload)
	case "start", "end":
		b.metaMessages.Add(1)
		meta, _ := payload["meta"].(map[any]any)
		b.mu.Lock()
		b.sessionMeta = normalizeMeta(meta)
		b.lastIngest = time.Now()
		b.mu.Unlock()
		return true
	default:
		b.logEveryN("bridge ignoring message type %q", msgType)
		return false
	}
}

func (b *Bridge) handleThermal(payload map[string]any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := decodeTempGrid(payload["data"], b.rows, b.cols, b.thermal.Temps); err != nil {
		b.logEveryN("bridge thermal decode error: %v", err)
		return false
	}
	if ts, err := toFloat(payload["start_time"]); err == nil {
		b.lastCapture = ts
	}
	b.haveThermal = true
	b.lastIngest = time.Now()
	b.thermalFrames.Add(1)
	return true
}

func (b *Bridge) handleVisible(payload map[string]any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := decodePixelGrid(payload["data"], b.height, b.width, b.visible.Pix); err != nil {
		b.logEveryN("bridge visible decode error: %v", err)
		return false
	}
	b.haveVisible = true
	b.lastIngest = time.Now()
	b.visibleFrames.Add(1)
	return true
}

// ReadFrame copies the latest thermal frame into frame.
func (b *Bridge) ReadFrame(frame *types.SensorFrame) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.haveThermal {
		return ErrNoFrame
	}
	if !frame.CopyFrom(b.thermal) {
		return errors.New("sensor frame dimension mismatch")
	}
	return nil
}

// CaptureFrame copies the latest visible frame into fb.
func (b *Bridge) CaptureFrame(fb *types.Framebuffer) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.haveVisible {
		return ErrNoFrame
	}
	if !fb.CopyFrom(b.visible) {
		return errors.New("visible frame dimension mismatch")
	}
	return nil
}

// LastCaptureTime reports the device start_time of the newest thermal frame
// in seconds since the epoch, or 0 before the first frame carries one.
func (b *Bridge) LastCaptureTime() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastCapture
}

// Status reports ingest counters and session metadata for the status
// endpoint.
func (b *Bridge) Status() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	status := map[string]any{
		"thermal_frames_total":  b.thermalFrames.Load(),
		"visible_frames_total":  b.visibleFrames.Load(),
		"meta_messages_total":   b.metaMessages.Load(),
		"decode_failures_total": b.decodeFailures.Load(),
	}
	if !b.lastIngest.IsZero() {
		status["last_ingest"] = b.lastIngest.Format(time.RFC3339)
	}
	if b.lastCapture > 0 {
		status["last_capture_time"] = b.lastCapture
	}
	if b.sessionMeta != nil {
		status["session"] = b.sessionMeta
	}
	return status
}

// normalizeMeta converts CBOR's map[any]any decoding into string-keyed maps
// usable as JSON.
func normalizeMeta(meta map[any]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		key, ok := k.(string)
		if !ok {
			continue
		}
		if nested, ok := v.(map[any]any); ok {
			out[key] = normalizeMeta(nested)
			continue
		}
		out[key] = v
	}
	return out
}

func (b *Bridge) logEveryN(format string, args ...any) {
	if b.logCounter.Add(1)%int64(b.logEvery) == 0 {
		log.Printf(format, args...)
	}
}
