package processing

import "testing"

func TestInterpolateShape(t *testing.T) {
	rows, cols := 8, 8
	outRows, outCols := InterpolatedDims(InterpolateBilinear, rows, cols)
	if outRows != 15 || outCols != 15 {
		t.Fatalf("unexpected output dims: %dx%d", outRows, outCols)
	}

	src := make([]float64, rows*cols)
	for i := range src {
		src[i] = float64(i) / float64(len(src))
	}
	dst := make([]float64, outRows*outCols)
	Interpolate(src, rows, cols, dst)

	// Every source sample must survive untouched at even positions.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			got := dst[(2*r)*outCols+2*c]
			if got != src[r*cols+c] {
				t.Fatalf("sample (%d,%d) changed: got %v want %v", r, c, got, src[r*cols+c])
			}
		}
	}
}

func TestInterpolateAverages(t *testing.T) {
	// 2x2 input expands to 3x3 with simple midpoints.
	src := []float64{0, 1, 0.5, 1}
	dst := make([]float64, 9)
	Interpolate(src, 2, 2, dst)

	want := []float64{
		0, 0.5, 1,
		0.25, 0.625, 1,
		0.5, 0.75, 1,
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("cell %d: got %v want %v", i, dst[i], want[i])
		}
	}
}

func TestInterpolateFillsEveryGap(t *testing.T) {
	// 3x3 expands to 5x5. Every odd row and column, including the last
	// ones, averages the source-backed neighbors on both sides.
	src := []float64{
		0, 1, 2,
		3, 4, 5,
		6, 7, 8,
	}
	dst := make([]float64, 25)
	Interpolate(src, 3, 3, dst)

	want := []float64{
		0, 0.5, 1, 1.5, 2,
		1.5, 2, 2.5, 3, 3.5,
		3, 3.5, 4, 4.5, 5,
		4.5, 5, 5.5, 6, 6.5,
		6, 6.5, 7, 7.5, 8,
	}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("cell %d: got %v want %v", i, dst[i], want[i])
		}
	}
}

func TestInterpolateSweepOrder(t *testing.T) {
	// The vertical pass fills (1,0)=0.5 and (1,2)=0; the horizontal pass
	// then averages those into the center.
	src := []float64{1, 0, 0, 0}
	dst := make([]float64, 9)
	Interpolate(src, 2, 2, dst)

	if dst[4] != 0.25 {
		t.Fatalf("center: got %v want 0.25", dst[4])
	}
	if dst[3] != 0.5 || dst[5] != 0 {
		t.Fatalf("vertical pass results: got %v and %v", dst[3], dst[5])
	}
}

func TestInterpolateSingleRow(t *testing.T) {
	src := []float64{0, 1}
	dst := make([]float64, 3)
	Interpolate(src, 1, 2, dst)
	want := []float64{0, 0.5, 1}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("cell %d: got %v want %v", i, dst[i], want[i])
		}
	}
}

func TestInterpolatedDimsPassthrough(t *testing.T) {
	r, c := InterpolatedDims(InterpolateNone, 8, 8)
	if r != 8 || c != 8 {
		t.Fatalf("pass-through dims changed: %dx%d", r, c)
	}
}
