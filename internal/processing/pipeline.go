package processing

import (
	"time"

	"thermal-map-go/internal/compositor"
	"thermal-map-go/internal/palette"
	"thermal-map-go/internal/types"
)

// Stage names reported to the observer hook.
const (
	StageNormalize   = "normalize"
	StageInterpolate = "interpolate"
	StageMap         = "map"
	StageComposite   = "composite"
)

// Observer receives per-stage durations for each frame. Nil means no timing.
type Observer func(stage string, elapsed time.Duration)

// Pipeline owns every intermediate buffer between the raw sensor frame and
// the output framebuffer. All buffers are allocated once here; Step performs
// no allocation, which keeps per-frame latency flat.
type Pipeline struct {
	Normalizer    Normalizer
	Interpolation InterpolationMode
	Compositor    compositor.Compositor
	Observer      Observer

	pal *palette.Table

	sensorRows int
	sensorCols int
	gridRows   int
	gridCols   int

	normalized   []float64
	interpolated []float64
	indices      []uint8
}

// NewPipeline wires a pipeline for a sensorRows x sensorCols sensor feeding
// the given palette. The compositor's output geometry lives in the
// framebuffers passed to Step.
func NewPipeline(sensorRows, sensorCols int, pal *palette.Table, norm Normalizer, interp InterpolationMode, comp compositor.Compositor) *Pipeline {
	gridRows, gridCols := InterpolatedDims(interp, sensorRows, sensorCols)
	return &Pipeline{
		Normalizer:    norm,
		Interpolation: interp,
		Compositor:    comp,
		pal:           pal,
		sensorRows:    sensorRows,
		sensorCols:    sensorCols,
		gridRows:      gridRows,
		gridCols:      gridCols,
		normalized:    make([]float64, sensorRows*sensorCols),
		interpolated:  make([]float64, gridRows*gridCols),
		indices:       make([]uint8, gridRows*gridCols),
	}
}

// GridDims reports the thermal grid dimensions after interpolation.
func (p *Pipeline) GridDims() (rows, cols int) {
	return p.gridRows, p.gridCols
}

// Indices exposes the current color-mapped grid. Valid until the next Step.
func (p *Pipeline) Indices() []uint8 {
	return p.indices
}

// Step runs one frame through the pipeline: normalize, interpolate, color
// map, composite over the visible frame into out. Each stage finishes before
// the next starts and no buffer is touched by two stages at once.
func (p *Pipeline) Step(sensor *types.SensorFrame, visible *types.Framebuffer, out *types.Framebuffer) {
	start := time.Now()
	p.Normalizer.Normalize(sensor, p.normalized)
	p.observe(StageNormalize, start)

	start = time.Now()
	if p.Interpolation == InterpolateNone {
		copy(p.interpolated, p.normalized)
	} else {
		Interpolate(p.normalized, p.sensorRows, p.sensorCols, p.interpolated)
	}
	p.observe(StageInterpolate, start)

	start = time.Now()
	MapColors(p.interpolated, p.pal.Len(), p.indices)
	p.observe(StageMap, start)

	start = time.Now()
	p.Compositor.Composite(visible, p.indices, p.gridRows, p.gridCols, p.pal, out)
	p.observe(StageComposite, start)
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.Observer != nil {
		p.Observer(stage, time.Since(start))
	}
}
