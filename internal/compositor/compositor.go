package compositor

import (
	"fmt"

	"thermal-map-go/internal/palette"
	"thermal-map-go/internal/types"
)

// Mode selects how thermal colors merge with the visible frame.
type Mode int

const (
	// ModeStrideOverwrite copies the visible frame verbatim and replaces
	// every Nth pixel with the thermal color covering it, leaving the
	// picture legible between the overlay dots.
	ModeStrideOverwrite Mode = iota
	// ModeAlphaBlend mixes a full-resolution nearest-neighbor expansion of
	// the thermal grid over the visible frame, skipping sentinel cells.
	ModeAlphaBlend
)

func ParseMode(value string) (Mode, error) {
	switch value {
	case "stride":
		return ModeStrideOverwrite, nil
	case "alpha":
		return ModeAlphaBlend, nil
	default:
		return 0, fmt.Errorf("unknown composite mode %q", value)
	}
}

func (m Mode) String() string {
	if m == ModeAlphaBlend {
		return "alpha"
	}
	return "stride"
}

// Compositor merges the color-mapped thermal grid with the visible camera
// frame. The thermal grid is always sparser than the display, so placement
// is block-based nearest neighbor, never interpolated at this stage.
type Compositor struct {
	Mode        Mode
	Stride      int
	Orientation Orientation

	// Alpha is the overlay weight in alpha mode, 0 (invisible) to 1
	// (opaque).
	Alpha float64

	// Format must match how the palette and visible frame are packed;
	// alpha blending has to unpack channels.
	Format palette.PixelFormat
}

// Composite writes the merged frame into out. indices is the color-mapped
// thermal grid, gridRows x gridCols row-major in sensor space. visible and
// out must share dimensions; out is overwritten in place, no allocation.
func (c *Compositor) Composite(visible *types.Framebuffer, indices []uint8, gridRows, gridCols int, pal *palette.Table, out *types.Framebuffer) {
	out.CopyFrom(visible)

	// Block dimensions in display space. An axis swap means the sensor
	// grid's rows run along the display's x axis.
	blocksX, blocksY := gridCols, gridRows
	if c.Orientation.SwapAxes {
		blocksX, blocksY = gridRows, gridCols
	}
	blockW := (out.Width + blocksX - 1) / blocksX
	blockH := (out.Height + blocksY - 1) / blocksY

	switch c.Mode {
	case ModeAlphaBlend:
		c.blend(indices, gridRows, gridCols, pal, out, blockW, blockH, blocksX, blocksY)
	default:
		c.strideOverwrite(indices, gridRows, gridCols, pal, out, blockW, blockH, blocksX, blocksY)
	}
}

func (c *Compositor) strideOverwrite(indices []uint8, gridRows, gridCols int, pal *palette.Table, out *types.Framebuffer, blockW, blockH, blocksX, blocksY int) {
	stride := c.Stride
	if stride < 1 {
		stride = 1
	}
	for y := 0; y < out.Height; y += stride {
		for x := 0; x < out.Width; x += stride {
			tx, ty := c.cell(x, y, blockW, blockH, blocksX, blocksY, gridCols, gridRows)
			out.Set(x, y, pal.Color(int(indices[ty*gridCols+tx])))
		}
	}
}

func (c *Compositor) blend(indices []uint8, gridRows, gridCols int, pal *palette.Table, out *types.Framebuffer, blockW, blockH, blocksX, blocksY int) {
	alpha := c.Alpha
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			tx, ty := c.cell(x, y, blockW, blockH, blocksX, blocksY, gridCols, gridRows)
			idx := indices[ty*gridCols+tx]
			if idx == 0 {
				// Sentinel: no thermal data here.
				continue
			}
			mixed := blendPixels(out.At(x, y), pal.Color(int(idx)), alpha, c.Format)
			out.Set(x, y, mixed)
		}
	}
}

// cell maps a display pixel to the sensor grid cell covering it.
func (c *Compositor) cell(x, y, blockW, blockH, blocksX, blocksY, gridCols, gridRows int) (int, int) {
	bx := x / blockW
	if bx >= blocksX {
		bx = blocksX - 1
	}
	by := y / blockH
	if by >= blocksY {
		by = blocksY - 1
	}
	return c.Orientation.Apply(bx, by, gridCols, gridRows)
}

func blendPixels(under, over uint16, alpha float64, format palette.PixelFormat) uint16 {
	ur, ug, ub := palette.Unpack(under, format)
	or, og, ob := palette.Unpack(over, format)
	r := mix(ur, or, alpha)
	g := mix(ug, og, alpha)
	b := mix(ub, ob, alpha)
	return palette.Pack(r, g, b, format)
}

func mix(under, over uint8, alpha float64) uint8 {
	return uint8(float64(under)*(1-alpha) + float64(over)*alpha)
}
