package sensor

import "thermal-map-go/internal/types"

// Source is the IR sensor collaborator. ReadFrame fills frame with the most
// recent reading; implementations must not hold the buffer after returning.
type Source interface {
	ReadFrame(frame *types.SensorFrame) error
}
