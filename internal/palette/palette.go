package palette

import (
	"fmt"
	"math"
)

// PixelFormat selects how palette entries (and therefore every framebuffer
// pixel) are packed for the display bus.
type PixelFormat int

const (
	// RGB565 is the usual r:5 g:6 b:5 layout in native bit order.
	RGB565 PixelFormat = iota
	// RGB565Swapped is RGB565 with the two bytes exchanged, as expected by
	// SPI display controllers fed high byte first.
	RGB565Swapped
)

func ParsePixelFormat(value string) (PixelFormat, error) {
	switch value {
	case "rgb565":
		return RGB565, nil
	case "rgb565-swapped":
		return RGB565Swapped, nil
	default:
		return 0, fmt.Errorf("unknown pixel format %q", value)
	}
}

func (f PixelFormat) String() string {
	if f == RGB565Swapped {
		return "rgb565-swapped"
	}
	return "rgb565"
}

// Table is an immutable ordered color lookup table. Index 0 is black and
// doubles as the transparent/no-data sentinel; the last index is near-white.
type Table struct {
	colors []uint16
	format PixelFormat
}

// New builds a color table sweeping half the HSV hue wheel, the half
// conventionally used for temperature: blue -> purple -> red -> orange ->
// yellow. The bottom fadeFraction of the table fades black to blue and the
// top fadeFraction desaturates yellow to white, so the coldest entries are
// dark and the hottest glow.
func New(colorCount int, fadeFraction float64, format PixelFormat) (*Table, error) {
	if colorCount < 2 {
		return nil, fmt.Errorf("palette needs at least 2 colors, got %d", colorCount)
	}
	// Mapped indices travel as bytes, so the table cannot exceed 256 entries.
	if colorCount > 256 {
		return nil, fmt.Errorf("palette supports at most 256 colors, got %d", colorCount)
	}
	if fadeFraction <= 0 || fadeFraction >= 0.5 {
		return nil, fmt.Errorf("fade fraction %v outside (0, 0.5)", fadeFraction)
	}

	colors := make([]uint16, colorCount)
	for i := 0; i < colorCount; i++ {
		t := float64(i) / float64(colorCount)

		var hue, saturation, value float64
		switch {
		case t < fadeFraction:
			// Fade from black up to full blue.
			hue = -1.0 / 3.0
			saturation = 1.0
			value = t / fadeFraction
		case t > 1-fadeFraction:
			// Glow from yellow toward white.
			hue = 1.0 / 6.0
			saturation = (fadeFraction - (t - (1 - fadeFraction))) / fadeFraction
			value = 1.0
		default:
			// Hue travels from +1/6 down to -1/3 across the middle span.
			hueRange := 1 - fadeFraction*2
			hue = (t-fadeFraction)/(hueRange*2) - 1.0/3.0
			saturation = 1.0
			value = 1.0
		}

		r, g, b := hsvToRGB(hue, saturation, value)
		colors[i] = Pack(r, g, b, format)
	}

	return &Table{colors: colors, format: format}, nil
}

func (t *Table) Len() int {
	return len(t.colors)
}

func (t *Table) Format() PixelFormat {
	return t.format
}

// Color returns the packed color at index i. Out-of-range indices clamp to
// the nearest table end.
func (t *Table) Color(i int) uint16 {
	if i < 0 {
		i = 0
	}
	if i >= len(t.colors) {
		i = len(t.colors) - 1
	}
	return t.colors[i]
}

// Pack converts 8-bit channels to a packed 16-bit pixel in the given format.
func Pack(r, g, b uint8, format PixelFormat) uint16 {
	native := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	if format == RGB565Swapped {
		return native<<8 | native>>8
	}
	return native
}

// Unpack expands a packed pixel back to 8-bit channels. The low bits lost in
// packing stay zero.
func Unpack(p uint16, format PixelFormat) (r, g, b uint8) {
	if format == RGB565Swapped {
		p = p<<8 | p>>8
	}
	r = uint8(p>>11) << 3
	g = uint8(p>>5&0x3f) << 2
	b = uint8(p&0x1f) << 3
	return r, g, b
}

// hsvToRGB converts hue (in turns, any sign, wrapped into [0,1)),
// saturation and value in [0,1] to 8-bit RGB channels.
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = h - math.Floor(h)
	if s <= 0 {
		c := channel(v)
		return c, c, c
	}

	sector := h * 6
	i := int(sector)
	f := sector - float64(i)

	p := v * (1 - s)
	q := v * (1 - s*f)
	u := v * (1 - s*(1-f))

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, u, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, u
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = u, p, v
	case 5:
		r, g, b = v, p, q
	}
	return channel(r), channel(g), channel(b)
}

func channel(v float64) uint8 {
	scaled := int(v * 255)
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}
