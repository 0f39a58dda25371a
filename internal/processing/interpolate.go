package processing

import "fmt"

// InterpolationMode selects whether the normalized grid is upsampled before
// color mapping.
type InterpolationMode int

const (
	// InterpolateBilinear runs one 2x bilinear doubling pass.
	InterpolateBilinear InterpolationMode = iota
	// InterpolateNone passes the grid through untouched; a cheaper mode for
	// slow hosts at the cost of a blockier overlay.
	InterpolateNone
)

func ParseInterpolationMode(value string) (InterpolationMode, error) {
	switch value {
	case "bilinear":
		return InterpolateBilinear, nil
	case "none":
		return InterpolateNone, nil
	default:
		return 0, fmt.Errorf("unknown interpolation mode %q", value)
	}
}

func (m InterpolationMode) String() string {
	if m == InterpolateNone {
		return "none"
	}
	return "bilinear"
}

// InterpolatedDims reports the output grid dimensions for an input of
// rows x cols under the given mode.
func InterpolatedDims(mode InterpolationMode, rows, cols int) (int, int) {
	if mode == InterpolateNone {
		return rows, cols
	}
	return 2*rows - 1, 2*cols - 1
}

// Interpolate doubles src (rows x cols, row-major) into dst, which must hold
// (2*rows-1)*(2*cols-1) values. Source samples land on even row/column
// positions. The gaps fill in as two sequential one-dimensional sweeps:
// odd rows average their even-row neighbors first, then odd columns average
// their even-column neighbors on the already expanded rows. The sweep order
// is part of the contract; a true 2-D weighting would produce slightly
// different interior values.
func Interpolate(src []float64, rows, cols int, dst []float64) {
	outRows := 2*rows - 1
	outCols := 2*cols - 1

	// Even rows, even columns: the original samples.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst[(2*r)*outCols+2*c] = src[r*cols+c]
		}
	}

	// Odd rows at even columns: vertical averages. outRows is odd, so every
	// odd row sits between two even rows.
	for r := 1; r < outRows; r += 2 {
		for c := 0; c < outCols; c += 2 {
			dst[r*outCols+c] = (dst[(r-1)*outCols+c] + dst[(r+1)*outCols+c]) / 2
		}
	}

	// Odd columns on every row: horizontal averages over the filled even
	// columns, which likewise always exist on both sides.
	for r := 0; r < outRows; r++ {
		for c := 1; c < outCols; c += 2 {
			dst[r*outCols+c] = (dst[r*outCols+(c-1)] + dst[r*outCols+(c+1)]) / 2
		}
	}
}
