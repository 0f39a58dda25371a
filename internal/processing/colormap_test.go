package processing

import "testing"

func TestMapColorsBoundaries(t *testing.T) {
	values := []float64{0, 1, 1.5, -0.2, 0.5}
	dst := make([]uint8, len(values))
	MapColors(values, 64, dst)

	if dst[0] != 0 {
		t.Fatalf("0.0 should map to index 0, got %d", dst[0])
	}
	if dst[1] != 63 {
		t.Fatalf("1.0 should map to the last index, got %d", dst[1])
	}
	if dst[2] != 63 {
		t.Fatalf("over-range value should clamp to the last index, got %d", dst[2])
	}
	if dst[3] != 0 {
		t.Fatalf("under-range value should clamp to index 0, got %d", dst[3])
	}
	if dst[4] != 32 {
		t.Fatalf("0.5 should map to index 32, got %d", dst[4])
	}
}

func TestMapColorsLargestTable(t *testing.T) {
	// 256 is the largest table the byte-wide index grid can address; the
	// top value must land on the last entry, not wrap.
	dst := make([]uint8, 2)
	MapColors([]float64{1.0, 0.0}, 256, dst)
	if dst[0] != 255 {
		t.Fatalf("1.0 with 256 colors should map to index 255, got %d", dst[0])
	}
	if dst[1] != 0 {
		t.Fatalf("0.0 should map to index 0, got %d", dst[1])
	}
}

func TestMapColorsMonotonic(t *testing.T) {
	values := make([]float64, 256)
	for i := range values {
		values[i] = float64(i) / 255
	}
	dst := make([]uint8, len(values))
	MapColors(values, 64, dst)

	for i := 1; i < len(dst); i++ {
		if dst[i] < dst[i-1] {
			t.Fatalf("indices not monotone at %d: %d < %d", i, dst[i], dst[i-1])
		}
	}
}
