package server

import (
	"encoding/binary"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"thermal-map-go/internal/config"
	"thermal-map-go/internal/palette"
	"thermal-map-go/internal/types"
)

func TestHandleConfig(t *testing.T) {
	srv := New(config.AppConfig{
		Port:          9999,
		DisplayWidth:  240,
		DisplayHeight: 240,
		SensorRows:    8,
		SensorCols:    8,
		Colors:        64,
		CompositeMode: "stride",
	}, palette.RGB565Swapped, nil)

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload["display_width"].(float64) != 240 {
		t.Fatalf("unexpected display_width: %v", payload["display_width"])
	}
	if payload["pixel_format"].(string) != "rgb565-swapped" {
		t.Fatalf("unexpected pixel_format: %v", payload["pixel_format"])
	}
	if payload["port"].(float64) != 9999 {
		t.Fatalf("unexpected port: %v", payload["port"])
	}
}

func TestHandleStatusMergesClientCount(t *testing.T) {
	srv := New(config.AppConfig{Port: 1}, palette.RGB565, func() map[string]any {
		return map[string]any{
			"detector": "simulator",
			"metrics":  map[string]any{"frames_total": 12},
		}
	})

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	metrics, ok := payload["metrics"].(map[string]any)
	if !ok {
		t.Fatalf("missing metrics: %v", payload)
	}
	if metrics["ws_clients"].(float64) != 0 {
		t.Fatalf("unexpected ws_clients: %v", metrics["ws_clients"])
	}
}

func TestEncodeFrame(t *testing.T) {
	fb := types.NewFramebuffer(2, 1)
	fb.Pix[0] = 0xf800
	fb.Pix[1] = 0x001f

	payload := encodeFrame(fb, palette.RGB565)
	if len(payload) != 2+5+4 {
		t.Fatalf("unexpected payload length: %d", len(payload))
	}
	if payload[0] != 'T' || payload[1] != 'M' {
		t.Fatalf("bad magic: %v", payload[:2])
	}
	if binary.LittleEndian.Uint16(payload[2:4]) != 2 {
		t.Fatalf("bad width")
	}
	if binary.LittleEndian.Uint16(payload[4:6]) != 1 {
		t.Fatalf("bad height")
	}
	if payload[6] != byte(palette.RGB565) {
		t.Fatalf("bad format byte: %d", payload[6])
	}
	if binary.LittleEndian.Uint16(payload[7:9]) != 0xf800 {
		t.Fatalf("bad first pixel")
	}
	if binary.LittleEndian.Uint16(payload[9:11]) != 0x001f {
		t.Fatalf("bad second pixel")
	}
}

func TestPresentKeepsLatestWithoutBlocking(t *testing.T) {
	srv := New(config.AppConfig{Port: 1}, palette.RGB565, nil)

	fb := types.NewFramebuffer(4, 4)
	// More frames than the queue holds; Present must never block.
	for i := 0; i < 32; i++ {
		fb.Pix[0] = uint16(i)
		if err := srv.Present(fb); err != nil {
			t.Fatalf("Present error: %v", err)
		}
	}

	srv.latestMu.Lock()
	latest := srv.latest
	srv.latestMu.Unlock()
	if latest == nil {
		t.Fatal("latest frame not retained")
	}
	if binary.LittleEndian.Uint16(latest[7:9]) != 31 {
		t.Fatalf("latest frame is stale: %d", binary.LittleEndian.Uint16(latest[7:9]))
	}
}
