package output

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"thermal-map-go/internal/processing"
)

// SeriesWriter appends one CSV row of frame statistics per sensor frame,
// for offline plotting of a session's temperature history.
type SeriesWriter struct {
	mu    sync.Mutex
	f     *os.File
	w     *bufio.Writer
	index int
}

func NewSeriesWriter(outputDir string, runTimestamp string) (*SeriesWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_thermal_series.csv", runTimestamp))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, "frame_index, timestamp, min_c, max_c, mean_c"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &SeriesWriter{f: f, w: w}, nil
}

// Append writes one row. timestamp is the frame's capture time in seconds
// since the epoch, so the series reflects sensor timing, not loop timing.
func (s *SeriesWriter) Append(timestamp float64, stats processing.FrameStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return errors.New("series writer is closed")
	}
	_, err := fmt.Fprintf(
		s.w,
		"%d, %.6f, %.2f, %.2f, %.2f\n",
		s.index,
		timestamp,
		stats.Min,
		stats.Max,
		stats.Mean,
	)
	s.index++
	return err
}

func (s *SeriesWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	flushErr := s.w.Flush()
	err := s.f.Close()
	s.w = nil
	if flushErr != nil {
		return flushErr
	}
	return err
}
