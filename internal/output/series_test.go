package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thermal-map-go/internal/processing"
)

func TestSeriesWriter(t *testing.T) {
	dir := t.TempDir()

	w, err := NewSeriesWriter(dir, "20240101_120000")
	if err != nil {
		t.Fatalf("NewSeriesWriter error: %v", err)
	}
	if err := w.Append(1700000000.25, processing.FrameStats{Min: 20.5, Max: 30.25, Mean: 24}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := w.Append(1700000000.35, processing.FrameStats{Min: 21, Max: 29, Mean: 25}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "20240101_120000_thermal_series.csv"))
	if err != nil {
		t.Fatalf("read series file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "frame_index") {
		t.Fatalf("missing header: %q", lines[0])
	}
	if lines[1] != "0, 1700000000.250000, 20.50, 30.25, 24.00" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if lines[2] != "1, 1700000000.350000, 21.00, 29.00, 25.00" {
		t.Fatalf("unexpected second row: %q", lines[2])
	}

	if err := w.Append(0, processing.FrameStats{}); err == nil {
		t.Fatal("expected error appending to closed writer")
	}
}
