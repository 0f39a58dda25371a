package processing

import (
	"fmt"

	"thermal-map-go/internal/types"
)

// NormalizeMode selects how raw temperatures are rescaled into [0,1].
type NormalizeMode int

const (
	// NormalizeAdaptive stretches each frame across its own observed
	// min/max, so the full palette is always in play.
	NormalizeAdaptive NormalizeMode = iota
	// NormalizeFixed maps against the sensor's rated range, so a given
	// temperature always lands on the same color.
	NormalizeFixed
)

func ParseNormalizeMode(value string) (NormalizeMode, error) {
	switch value {
	case "adaptive":
		return NormalizeAdaptive, nil
	case "fixed":
		return NormalizeFixed, nil
	default:
		return 0, fmt.Errorf("unknown normalize mode %q", value)
	}
}

func (m NormalizeMode) String() string {
	if m == NormalizeFixed {
		return "fixed"
	}
	return "adaptive"
}

// Normalizer rescales sensor frames into [0,1]. Out-of-range readings clamp,
// they never error.
type Normalizer struct {
	Mode NormalizeMode

	// Rated sensor bounds, used in fixed mode. The AMG8833 reports 0-80C.
	SensorMin float64
	SensorMax float64

	// Frames spanning less than NoiseFloor degrees are treated as flat in
	// adaptive mode; stretching them would just amplify sensor noise.
	NoiseFloor float64
}

// Normalize rescales frame into dst, which must hold Rows*Cols values.
// A flat frame (adaptive mode, range below the noise floor) comes out as all
// zeros, the no-data sentinel.
func (n *Normalizer) Normalize(frame *types.SensorFrame, dst []float64) {
	lo, hi := n.SensorMin, n.SensorMax
	if n.Mode == NormalizeAdaptive {
		lo, hi = frameRange(frame)
		if hi-lo < n.NoiseFloor {
			for i := range dst {
				dst[i] = 0
			}
			return
		}
	}

	span := hi - lo
	if span <= 0 {
		for i := range dst {
			dst[i] = 0
		}
		return
	}

	for i, v := range frame.Temps {
		dst[i] = clamp01((v - lo) / span)
	}
}

func frameRange(frame *types.SensorFrame) (lo, hi float64) {
	lo, hi = frame.Temps[0], frame.Temps[0]
	for _, v := range frame.Temps[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
