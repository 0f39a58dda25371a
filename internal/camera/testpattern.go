package camera

import (
	"time"

	"thermal-map-go/internal/palette"
	"thermal-map-go/internal/types"
)

// TestPattern stands in for the camera when no device is attached: a dim
// gray gradient with a slowly sweeping vertical bar, so overlay alignment
// and motion stay visible in the viewer.
type TestPattern struct {
	Format palette.PixelFormat
	start  time.Time
}

func NewTestPattern(format palette.PixelFormat) *TestPattern {
	return &TestPattern{Format: format, start: time.Now()}
}

func (p *TestPattern) CaptureFrame(fb *types.Framebuffer) error {
	barPeriod := 8 * time.Second
	phase := float64(time.Since(p.start)%barPeriod) / float64(barPeriod)
	barX := int(phase * float64(fb.Width))
	barW := fb.Width / 16
	if barW < 1 {
		barW = 1
	}

	for y := 0; y < fb.Height; y++ {
		shade := uint8(32 + 96*y/fb.Height)
		row := palette.Pack(shade, shade, shade, p.Format)
		bar := palette.Pack(shade+64, shade+64, shade, p.Format)
		for x := 0; x < fb.Width; x++ {
			if d := x - barX; d >= 0 && d < barW {
				fb.Set(x, y, bar)
			} else {
				fb.Set(x, y, row)
			}
		}
	}
	return nil
}
