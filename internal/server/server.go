package server

import (
	"context"
	"embed"
	"encoding/binary"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"thermal-map-go/internal/config"
	"thermal-map-go/internal/palette"
	"thermal-map-go/internal/types"
)

//go:embed web/*
var webFS embed.FS

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	pingEvery = (pongWait * 9) / 10
)

// frameMagic prefixes every binary websocket frame so the page can tell
// framebuffer payloads from stray messages.
var frameMagic = []byte{'T', 'M'}

// Server is the live viewer: it serves the embedded page, streams each
// composited framebuffer to websocket clients as a binary message, and
// exposes config and status JSON. It doubles as the pipeline's display sink.
type Server struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*sync.Mutex
	mu       sync.Mutex

	cfg      config.AppConfig
	format   palette.PixelFormat
	statusFn func() map[string]any

	frames   chan []byte
	latestMu sync.Mutex
	latest   []byte
}

func New(cfg config.AppConfig, format palette.PixelFormat, statusFn func() map[string]any) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		cfg:      cfg,
		format:   format,
		statusFn: statusFn,
		frames:   make(chan []byte, 4),
	}
}

// Present encodes the framebuffer and queues it for broadcast. A slow or
// absent viewer never blocks the frame loop; the frame is simply dropped.
func (s *Server) Present(fb *types.Framebuffer) error {
	payload := encodeFrame(fb, s.format)
	s.latestMu.Lock()
	s.latest = payload
	s.latestMu.Unlock()
	select {
	case s.frames <- payload:
	default:
	}
	return nil
}

// Run serves HTTP until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(sub)))
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/config", s.handleConfig)
	mux.HandleFunc("/status", s.handleStatus)

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go s.broadcast(ctx)

	return httpServer.ListenAndServe()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.mu.Lock()
	writeMu := &sync.Mutex{}
	s.clients[conn] = writeMu
	s.mu.Unlock()

	_ = s.writeJSON(conn, writeMu, s.configPayload())

	// Late joiners get the most recent frame immediately.
	s.latestMu.Lock()
	latest := s.latest
	s.latestMu.Unlock()
	if latest != nil {
		_ = s.writeMessage(conn, writeMu, websocket.BinaryMessage, latest)
	}

	go func() {
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingEvery)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					if err := s.writeMessage(conn, writeMu, websocket.PingMessage, nil); err != nil {
						_ = conn.Close()
						return
					}
				}
			}
		}()
		defer close(done)
		defer s.removeClient(conn)
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var request map[string]any
			if err := json.Unmarshal(payload, &request); err != nil {
				continue
			}
			if request["type"] == "snapshot_request" {
				s.latestMu.Lock()
				snapshot := s.latest
				s.latestMu.Unlock()
				if snapshot == nil {
					continue
				}
				_ = s.writeMessage(conn, writeMu, websocket.BinaryMessage, snapshot)
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.configPayload())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{}
	if s.statusFn != nil {
		payload = s.statusFn()
	}
	if metrics, ok := payload["metrics"].(map[string]any); ok {
		metrics["ws_clients"] = s.clientCount()
	} else {
		payload["ws_clients"] = s.clientCount()
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) configPayload() map[string]any {
	return map[string]any{
		"type":           "config",
		"display_width":  s.cfg.DisplayWidth,
		"display_height": s.cfg.DisplayHeight,
		"sensor_rows":    s.cfg.SensorRows,
		"sensor_cols":    s.cfg.SensorCols,
		"pixel_format":   s.format.String(),
		"colors":         s.cfg.Colors,
		"composite":      s.cfg.CompositeMode,
		"interpolation":  s.cfg.Interpolation,
		"normalize":      s.cfg.NormalizeMode,
		"orientation":    s.cfg.Orientation,
		"port":           s.cfg.Port,
	}
}

func (s *Server) broadcast(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-s.frames:
			if !ok {
				return
			}
			var stale []*websocket.Conn
			s.mu.Lock()
			for conn, writeMu := range s.clients {
				if err := s.writeMessage(conn, writeMu, websocket.BinaryMessage, payload); err != nil {
					stale = append(stale, conn)
				}
			}
			s.mu.Unlock()
			for _, conn := range stale {
				s.removeClient(conn)
			}
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) clientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) writeJSON(conn *websocket.Conn, writeMu *sync.Mutex, payload any) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(payload)
}

func (s *Server) writeMessage(conn *websocket.Conn, writeMu *sync.Mutex, messageType int, payload []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, payload)
}

// encodeFrame packs a framebuffer into the binary wire format: magic "TM",
// uint16 width, uint16 height, one format byte, then width*height pixels
// little-endian.
func encodeFrame(fb *types.Framebuffer, format palette.PixelFormat) []byte {
	out := make([]byte, len(frameMagic)+5+len(fb.Pix)*2)
	copy(out, frameMagic)
	binary.LittleEndian.PutUint16(out[2:4], uint16(fb.Width))
	binary.LittleEndian.PutUint16(out[4:6], uint16(fb.Height))
	out[6] = byte(format)
	for i, p := range fb.Pix {
		binary.LittleEndian.PutUint16(out[7+i*2:], p)
	}
	return out
}
