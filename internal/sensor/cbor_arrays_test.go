package sensor

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"thermal-map-go/internal/types"
)

func float32Payload(values []float32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func uint16Payload(values []uint16) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func TestDecodeTempGridFloat32(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{2, 2},
			cbor.Tag{
				Number:  tagFloat32LE,
				Content: float32Payload([]float32{20.5, 21, 22.25, 30}),
			},
		},
	}

	dst := make([]float64, 4)
	if err := decodeTempGrid(value, 2, 2, dst); err != nil {
		t.Fatalf("decodeTempGrid error: %v", err)
	}

	want := []float64{20.5, 21, 22.25, 30}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("cell %d: got %v want %v", i, dst[i], want[i])
		}
	}
}

func TestDecodeTempGridCentiDegrees(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{1, 2},
			cbor.Tag{
				Number:  tagUint16LE,
				Content: uint16Payload([]uint16{2042, 3100}),
			},
		},
	}

	dst := make([]float64, 2)
	if err := decodeTempGrid(value, 1, 2, dst); err != nil {
		t.Fatalf("decodeTempGrid error: %v", err)
	}
	if dst[0] != 20.42 || dst[1] != 31.0 {
		t.Fatalf("unexpected values: %v", dst)
	}
}

func TestDecodeTempGridRejectsWrongShape(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{2, 2},
			cbor.Tag{
				Number:  tagUint8,
				Content: []byte{1, 2, 3, 4},
			},
		},
	}

	dst := make([]float64, 64)
	if err := decodeTempGrid(value, 8, 8, dst); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestDecodeMultiDimArrayDimensionMismatch(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{2, 3},
			cbor.Tag{
				Number:  tagUint8,
				Content: []byte{1, 2, 3, 4},
			},
		},
	}

	if _, _, _, err := decodeMultiDimArray(value); err == nil {
		t.Fatal("expected element count mismatch error")
	}
}

func TestDecodePixelGrid(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{2, 2},
			cbor.Tag{
				Number:  tagUint16LE,
				Content: uint16Payload([]uint16{0xf800, 0x07e0, 0x001f, 0xffff}),
			},
		},
	}

	dst := make([]uint16, 4)
	if err := decodePixelGrid(value, 2, 2, dst); err != nil {
		t.Fatalf("decodePixelGrid error: %v", err)
	}
	want := []uint16{0xf800, 0x07e0, 0x001f, 0xffff}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("pixel %d: got %04x want %04x", i, dst[i], want[i])
		}
	}
}

func TestBridgeHandleThermalMessage(t *testing.T) {
	b := &Bridge{
		rows:     1,
		cols:     2,
		width:    2,
		height:   1,
		logEvery: 1,
	}
	b.thermal = types.NewSensorFrame(1, 2)
	b.visible = types.NewFramebuffer(2, 1)

	msg := map[string]any{
		"type":       "thermal",
		"frame_id":   3,
		"start_time": 1.5,
		"data": cbor.Tag{
			Number: tagMultiDimArray,
			Content: []any{
				[]any{1, 2},
				cbor.Tag{
					Number:  tagFloat32LE,
					Content: float32Payload([]float32{21, 28.5}),
				},
			},
		},
	}
	payload, err := cbor.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	if !b.handleMessage(payload) {
		t.Fatal("handleMessage returned false")
	}

	frame := types.NewSensorFrame(1, 2)
	if err := b.ReadFrame(frame); err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	if frame.Temps[0] != 21 || frame.Temps[1] != 28.5 {
		t.Fatalf("unexpected temps: %v", frame.Temps)
	}
	if b.thermalFrames.Load() != 1 {
		t.Fatalf("thermal counter: %d", b.thermalFrames.Load())
	}
	if got := b.LastCaptureTime(); got != 1.5 {
		t.Fatalf("capture time not taken from the message: %v", got)
	}
}

func TestBridgeReadBeforeFirstFrame(t *testing.T) {
	b := &Bridge{rows: 8, cols: 8, width: 4, height: 4, logEvery: 1}
	b.thermal = types.NewSensorFrame(8, 8)
	b.visible = types.NewFramebuffer(4, 4)

	if err := b.ReadFrame(types.NewSensorFrame(8, 8)); err != ErrNoFrame {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
	if err := b.CaptureFrame(types.NewFramebuffer(4, 4)); err != ErrNoFrame {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
}
