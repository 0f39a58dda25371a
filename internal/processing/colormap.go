package processing

// MapColors quantizes normalized values into palette indices:
// floor(value * colorCount), clamped to [0, colorCount-1]. Flat-frame zeros
// land on index 0, the sentinel the palette keeps black and the compositor
// treats as transparent.
func MapColors(values []float64, colorCount int, dst []uint8) {
	for i, v := range values {
		idx := int(v * float64(colorCount))
		if idx < 0 {
			idx = 0
		}
		if idx >= colorCount {
			idx = colorCount - 1
		}
		dst[i] = uint8(idx)
	}
}
