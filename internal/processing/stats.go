package processing

import (
	"sync"
	"time"

	"thermal-map-go/internal/types"
)

// FrameStats summarizes one sensor frame in degrees Celsius.
type FrameStats struct {
	Min  float64
	Max  float64
	Mean float64
}

// Stats computes min/max/mean over a sensor frame.
func Stats(frame *types.SensorFrame) FrameStats {
	lo, hi := frameRange(frame)
	sum := 0.0
	for _, v := range frame.Temps {
		sum += v
	}
	return FrameStats{
		Min:  lo,
		Max:  hi,
		Mean: sum / float64(len(frame.Temps)),
	}
}

// StatsTracker keeps the latest frame stats and session extremes for the
// status endpoint. Safe for concurrent readers.
type StatsTracker struct {
	mu         sync.Mutex
	frames     int
	latest     FrameStats
	sessionLo  float64
	sessionHi  float64
	hasExtreme bool
}

func (t *StatsTracker) Observe(stats FrameStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames++
	t.latest = stats
	if !t.hasExtreme {
		t.sessionLo = stats.Min
		t.sessionHi = stats.Max
		t.hasExtreme = true
		return
	}
	if stats.Min < t.sessionLo {
		t.sessionLo = stats.Min
	}
	if stats.Max > t.sessionHi {
		t.sessionHi = stats.Max
	}
}

func (t *StatsTracker) Snapshot() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]any{
		"frames":      t.frames,
		"min_c":       t.latest.Min,
		"max_c":       t.latest.Max,
		"mean_c":      t.latest.Mean,
		"session_min": t.sessionLo,
		"session_max": t.sessionHi,
	}
}

func Timestamp() string {
	return time.Now().Format("20060102_150405")
}
