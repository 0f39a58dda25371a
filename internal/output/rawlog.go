package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

const rawLogMagic = "THMRAW01"

// RawLogWriter records raw bridge payloads to a gzip-compressed log:
// an 8-byte magic, then per record a 12-byte header (nanosecond timestamp,
// payload length, both little-endian) followed by the payload.
type RawLogWriter struct {
	mu sync.Mutex
	f  *os.File
	gz *gzip.Writer
}

func NewRawLogWriter(outputDir string, prefix string) (*RawLogWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.bin.gz", timestamp, prefix))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := gz.Write([]byte(rawLogMagic)); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &RawLogWriter{f: f, gz: gz}, nil
}

func (r *RawLogWriter) Record(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gz == nil {
		return errors.New("raw log writer is closed")
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.gz.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.gz.Write(payload); err != nil {
		return err
	}
	return r.gz.Flush()
}

func (r *RawLogWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gz == nil {
		return nil
	}
	gzErr := r.gz.Close()
	err := r.f.Close()
	r.gz = nil
	if gzErr != nil {
		return gzErr
	}
	return err
}

// RawLogReader iterates the records of a capture log written by
// RawLogWriter.
type RawLogReader struct {
	f  *os.File
	gz *gzip.Reader
}

func OpenRawLog(path string) (*RawLogReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	magic := make([]byte, len(rawLogMagic))
	if _, err := io.ReadFull(gz, magic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if string(magic) != rawLogMagic {
		_ = f.Close()
		return nil, fmt.Errorf("unexpected raw log magic %q", string(magic))
	}
	return &RawLogReader{f: f, gz: gz}, nil
}

// Next returns the following record's timestamp and payload, or io.EOF at
// the end of the log.
func (r *RawLogReader) Next() (time.Time, []byte, error) {
	var header [12]byte
	if _, err := io.ReadFull(r.gz, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return time.Time{}, nil, err
	}
	ts := time.Unix(0, int64(binary.LittleEndian.Uint64(header[:8])))
	size := binary.LittleEndian.Uint32(header[8:12])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.gz, payload); err != nil {
		return time.Time{}, nil, err
	}
	return ts, payload, nil
}

func (r *RawLogReader) Close() error {
	gzErr := r.gz.Close()
	err := r.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return err
}
