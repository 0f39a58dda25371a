package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// RFC 8746 typed array tags used on the bridge wire.
const (
	tagMultiDimArray = 40
	tagUint8         = 64
	tagUint16LE      = 69
	tagUint32LE      = 70
	tagFloat32LE     = 85
)

// decodeTempGrid decodes a tag-40 multidimensional array of temperatures
// into dst (row-major). The wire dimensions must match rows x cols.
func decodeTempGrid(value any, rows, cols int, dst []float64) error {
	wireRows, wireCols, flat, err := decodeMultiDimArray(value)
	if err != nil {
		return err
	}
	if wireRows != rows || wireCols != cols {
		return fmt.Errorf("thermal grid is %dx%d, expected %dx%d", wireRows, wireCols, rows, cols)
	}

	switch v := flat.(type) {
	case []float32:
		for i, s := range v {
			dst[i] = float64(s)
		}
	case []uint16:
		// Centi-degree encoding from integer-only firmware.
		for i, s := range v {
			dst[i] = float64(s) / 100
		}
	case []uint8:
		for i, s := range v {
			dst[i] = float64(s)
		}
	default:
		return fmt.Errorf("unsupported thermal element type %T", flat)
	}
	return nil
}

// decodePixelGrid decodes a tag-40 multidimensional array of packed 16-bit
// pixels into dst.
func decodePixelGrid(value any, height, width int, dst []uint16) error {
	wireRows, wireCols, flat, err := decodeMultiDimArray(value)
	if err != nil {
		return err
	}
	if wireRows != height || wireCols != width {
		return fmt.Errorf("visible frame is %dx%d, expected %dx%d", wireCols, wireRows, width, height)
	}

	pixels, ok := flat.([]uint16)
	if !ok {
		return fmt.Errorf("unsupported pixel element type %T", flat)
	}
	copy(dst, pixels)
	return nil
}

func decodeMultiDimArray(value any) (rows, cols int, flat any, err error) {
	tag, ok := value.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		return 0, 0, nil, errors.New("expected multidim tag 40")
	}

	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return 0, 0, nil, errors.New("invalid multidim array content")
	}

	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) != 2 {
		return 0, 0, nil, errors.New("invalid multidim dimensions")
	}

	rows, err = toInt(dimsRaw[0])
	if err != nil {
		return 0, 0, nil, err
	}
	cols, err = toInt(dimsRaw[1])
	if err != nil {
		return 0, 0, nil, err
	}

	flat, err = decodeTypedArray(items[1])
	if err != nil {
		return 0, 0, nil, err
	}
	if length := typedArrayLen(flat); length != rows*cols {
		return 0, 0, nil, fmt.Errorf("dimension mismatch: %dx%d with %d elements", rows, cols, length)
	}
	return rows, cols, flat, nil
}

func decodeTypedArray(value any) (any, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, errors.New("expected typed array tag")
	}

	data, ok := tag.Content.([]byte)
	if !ok {
		return nil, fmt.Errorf("unsupported typed array content %T", tag.Content)
	}

	switch tag.Number {
	case tagUint8:
		return data, nil
	case tagUint16LE:
		return bytesToUint16(data), nil
	case tagUint32LE:
		return bytesToUint32(data), nil
	case tagFloat32LE:
		return bytesToFloat32(data), nil
	default:
		return nil, fmt.Errorf("unsupported typed array tag %d", tag.Number)
	}
}

func typedArrayLen(flat any) int {
	switch v := flat.(type) {
	case []uint8:
		return len(v)
	case []uint16:
		return len(v)
	case []uint32:
		return len(v)
	case []float32:
		return len(v)
	default:
		return -1
	}
}

func bytesToUint16(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	return out
}

func bytesToUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return out
}

func bytesToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := 0; i < len(out); i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported float type %T", v)
	}
}
