package compositor

import (
	"fmt"
	"strings"
)

// Orientation is the fixed permutation correcting for how the sensor is
// physically mounted relative to the display. Axis swap applies before the
// flips; flips act on the post-swap axes.
type Orientation struct {
	SwapAxes bool
	FlipX    bool
	FlipY    bool
}

// ParseOrientation reads a comma-separated list of "swap", "flip-x" and
// "flip-y" tokens. "none" or an empty string is the identity mapping.
func ParseOrientation(value string) (Orientation, error) {
	var o Orientation
	value = strings.TrimSpace(value)
	if value == "" || value == "none" {
		return o, nil
	}
	for _, token := range strings.Split(value, ",") {
		switch strings.TrimSpace(token) {
		case "swap":
			o.SwapAxes = true
		case "flip-x":
			o.FlipX = true
		case "flip-y":
			o.FlipY = true
		default:
			return Orientation{}, fmt.Errorf("unknown orientation token %q", token)
		}
	}
	return o, nil
}

func (o Orientation) String() string {
	var tokens []string
	if o.SwapAxes {
		tokens = append(tokens, "swap")
	}
	if o.FlipX {
		tokens = append(tokens, "flip-x")
	}
	if o.FlipY {
		tokens = append(tokens, "flip-y")
	}
	if len(tokens) == 0 {
		return "none"
	}
	return strings.Join(tokens, ",")
}

// Apply maps a display-space grid cell to the sensor-space cell covering it.
// cols and rows are the sensor grid dimensions after any axis swap has been
// accounted for by the caller passing display-space coordinates.
func (o Orientation) Apply(x, y, cols, rows int) (int, int) {
	if o.SwapAxes {
		x, y = y, x
	}
	if o.FlipX {
		x = cols - 1 - x
	}
	if o.FlipY {
		y = rows - 1 - y
	}
	return x, y
}
