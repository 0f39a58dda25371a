package output

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestRawLogRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewRawLogWriter(dir, "capture")
	if err != nil {
		t.Fatalf("NewRawLogWriter error: %v", err)
	}

	records := [][]byte{
		[]byte("first"),
		[]byte("second record"),
		{0x00, 0xff, 0x10},
	}
	for _, rec := range records {
		if err := w.Record(rec); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*_capture.bin.gz"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}

	r, err := OpenRawLog(matches[0])
	if err != nil {
		t.Fatalf("OpenRawLog error: %v", err)
	}
	defer r.Close()

	for i, want := range records {
		ts, payload, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d error: %v", i, err)
		}
		if ts.IsZero() {
			t.Fatalf("record %d has zero timestamp", i)
		}
		if !bytes.Equal(payload, want) {
			t.Fatalf("record %d payload mismatch: %q vs %q", i, payload, want)
		}
	}
	if _, _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF after last record, got %v", err)
	}
}

func TestRawLogClosedWriterRejectsRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := NewRawLogWriter(dir, "capture")
	if err != nil {
		t.Fatalf("NewRawLogWriter error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := w.Record([]byte("late")); err == nil {
		t.Fatal("expected error recording to a closed writer")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestOpenRawLogRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.bin.gz")
	if err := os.WriteFile(path, []byte("not a gzip stream"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := OpenRawLog(path); err == nil {
		t.Fatal("expected error for non-gzip file")
	}
}
