package camera

import "thermal-map-go/internal/types"

// Source is the visible-light camera collaborator. CaptureFrame fills fb
// with the most recent capture at the display resolution, already packed in
// the output pixel format.
type Source interface {
	CaptureFrame(fb *types.Framebuffer) error
}
