package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/fxamacker/cbor/v2"

	"thermal-map-go/internal/output"
)

const (
	tagMultiDimArray = 40
	tagUint8         = 64
	tagUint16LE      = 69
	tagFloat32LE     = 85
)

func main() {
	var (
		path  = flag.String("path", "", "Path to a capture log (.bin.gz)")
		limit = flag.Int("limit", 10, "Max number of records to print (0 for all)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("path is required")
	}

	r, err := output.OpenRawLog(*path)
	if err != nil {
		log.Fatalf("open capture log: %v", err)
	}
	defer r.Close()

	counts := map[string]int{}
	printed := 0
	for index := 0; ; index++ {
		ts, payload, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read record %d: %v", index, err)
		}

		var decoded map[string]any
		if err := cbor.Unmarshal(payload, &decoded); err != nil {
			log.Printf("record %d: CBOR decode error: %v", index, err)
			counts["undecodable"]++
			continue
		}

		msgType, _ := decoded["type"].(string)
		if msgType == "" {
			msgType = "unknown"
		}
		counts[msgType]++

		if *limit > 0 && printed >= *limit {
			continue
		}
		printed++

		fmt.Printf("record %d %s type=%s size=%d\n",
			index, ts.Format(time.RFC3339Nano), msgType, len(payload))
		if msgType == "thermal" {
			describeThermal(decoded["data"])
		}
	}

	fmt.Print("summary:")
	for msgType, n := range counts {
		fmt.Printf(" %s=%d", msgType, n)
	}
	fmt.Println()
}

func describeThermal(value any) {
	tag, ok := value.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		fmt.Printf("  data: unexpected %T\n", value)
		return
	}
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		fmt.Println("  data: invalid multidim content")
		return
	}
	dims, _ := items[0].([]any)

	temps, ok := decodeTemps(items[1])
	if !ok || len(temps) == 0 {
		fmt.Printf("  dims %v (unsupported element type)\n", dims)
		return
	}

	lo, hi := temps[0], temps[0]
	sum := 0.0
	for _, v := range temps {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		sum += v
	}
	fmt.Printf("  dims %v min=%.2fC max=%.2fC mean=%.2fC\n",
		dims, lo, hi, sum/float64(len(temps)))
}

func decodeTemps(value any) ([]float64, bool) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, false
	}
	data, ok := tag.Content.([]byte)
	if !ok {
		return nil, false
	}

	switch tag.Number {
	case tagFloat32LE:
		out := make([]float64, len(data)/4)
		for i := range out {
			bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
			out[i] = float64(math.Float32frombits(bits))
		}
		return out, true
	case tagUint16LE:
		out := make([]float64, len(data)/2)
		for i := range out {
			out[i] = float64(binary.LittleEndian.Uint16(data[i*2:i*2+2])) / 100
		}
		return out, true
	case tagUint8:
		out := make([]float64, len(data))
		for i := range out {
			out[i] = float64(data[i])
		}
		return out, true
	default:
		return nil, false
	}
}
