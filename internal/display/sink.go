package display

import "thermal-map-go/internal/types"

// Sink receives each finished output framebuffer. Present must copy or
// encode what it needs before returning; the buffer is reused next frame.
type Sink interface {
	Present(fb *types.Framebuffer) error
}

// Discard drops every frame. Used for headless runs (-port 0).
type Discard struct{}

func (Discard) Present(*types.Framebuffer) error { return nil }
