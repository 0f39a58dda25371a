package sensor

import (
	"testing"

	"thermal-map-go/internal/types"
)

func TestSimulatorProducesPlausibleFrames(t *testing.T) {
	sim := NewSimulator(8, 8)
	frame := types.NewSensorFrame(8, 8)
	if err := sim.ReadFrame(frame); err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}

	lo, hi := frame.Temps[0], frame.Temps[0]
	for _, v := range frame.Temps {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo < sim.AmbientC-5 {
		t.Fatalf("coldest cell implausible: %v", lo)
	}
	if hi > sim.SpotC+5 {
		t.Fatalf("hottest cell implausible: %v", hi)
	}
	if hi-lo < 1 {
		t.Fatalf("hot spot missing, range only %v", hi-lo)
	}
}
