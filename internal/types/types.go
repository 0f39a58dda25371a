package types

// SensorFrame is one raw reading from the IR sensor: a Rows x Cols grid of
// temperatures in degrees Celsius, row-major. The buffer is allocated once
// and overwritten each cycle.
type SensorFrame struct {
	Rows  int
	Cols  int
	Temps []float64
}

func NewSensorFrame(rows, cols int) *SensorFrame {
	return &SensorFrame{
		Rows:  rows,
		Cols:  cols,
		Temps: make([]float64, rows*cols),
	}
}

func (f *SensorFrame) At(row, col int) float64 {
	return f.Temps[row*f.Cols+col]
}

func (f *SensorFrame) Set(row, col int, v float64) {
	f.Temps[row*f.Cols+col] = v
}

// CopyFrom overwrites f with src, reusing the destination buffer.
// Dimensions must match.
func (f *SensorFrame) CopyFrom(src *SensorFrame) bool {
	if src.Rows != f.Rows || src.Cols != f.Cols {
		return false
	}
	copy(f.Temps, src.Temps)
	return true
}

// Framebuffer is a packed 16-bit pixel grid, row-major. Both the visible
// camera frame and the composited output use this layout.
type Framebuffer struct {
	Width  int
	Height int
	Pix    []uint16
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint16, width*height),
	}
}

func (b *Framebuffer) At(x, y int) uint16 {
	return b.Pix[y*b.Width+x]
}

func (b *Framebuffer) Set(x, y int, v uint16) {
	b.Pix[y*b.Width+x] = v
}

func (b *Framebuffer) CopyFrom(src *Framebuffer) bool {
	if src.Width != b.Width || src.Height != b.Height {
		return false
	}
	copy(b.Pix, src.Pix)
	return true
}
