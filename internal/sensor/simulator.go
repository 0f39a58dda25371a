package sensor

import (
	"math"
	"math/rand"
	"time"

	"thermal-map-go/internal/types"
)

// Simulator synthesizes sensor frames: a warm ambient field with a hot spot
// orbiting the grid center, plus per-cell noise. Useful without hardware and
// as the ingest fallback.
type Simulator struct {
	Rows int
	Cols int

	// AmbientC and SpotC are the background and hot spot peak temperatures.
	AmbientC float64
	SpotC    float64
	// NoiseC is the per-cell noise amplitude.
	NoiseC float64
	// Period is the time for one orbit of the hot spot.
	Period time.Duration

	rng   *rand.Rand
	start time.Time
}

func NewSimulator(rows, cols int) *Simulator {
	return &Simulator{
		Rows:     rows,
		Cols:     cols,
		AmbientC: 22.0,
		SpotC:    34.0,
		NoiseC:   0.25,
		Period:   12 * time.Second,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		start:    time.Now(),
	}
}

func (s *Simulator) ReadFrame(frame *types.SensorFrame) error {
	phase := 0.0
	if s.Period > 0 {
		phase = 2 * math.Pi * float64(time.Since(s.start)%s.Period) / float64(s.Period)
	}

	centerR := float64(s.Rows-1)/2 + float64(s.Rows)/4*math.Sin(phase)
	centerC := float64(s.Cols-1)/2 + float64(s.Cols)/4*math.Cos(phase)
	spread := float64(s.Rows*s.Cols) / 24.0

	for r := 0; r < s.Rows; r++ {
		for c := 0; c < s.Cols; c++ {
			dr := float64(r) - centerR
			dc := float64(c) - centerC
			spot := (s.SpotC - s.AmbientC) * math.Exp(-(dr*dr+dc*dc)/spread)
			noise := s.rng.NormFloat64() * s.NoiseC
			frame.Set(r, c, s.AmbientC+spot+noise)
		}
	}
	return nil
}
