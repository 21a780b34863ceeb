// Package dtype enumerates the element encodings a constant tensor may use.
package dtype

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// DType identifies a tensor element encoding. Values are stable and appear
// in manifests and packed artifacts; add new values only.
type DType uint32

const (
	Unknown DType = iota
	F32
	F16
	BF16
	F64
	I8
	U8
	I16
	U16
	I32
	U32
	I64
	U64
)

var names = map[DType]string{
	Unknown: "unknown",
	F32:     "f32",
	F16:     "f16",
	BF16:    "bf16",
	F64:     "f64",
	I8:      "i8",
	U8:      "u8",
	I16:     "i16",
	U16:     "u16",
	I32:     "i32",
	U32:     "u32",
	I64:     "i64",
	U64:     "u64",
}

func (d DType) String() string {
	if s, ok := names[d]; ok {
		return s
	}
	return fmt.Sprintf("dtype(0x%04x)", uint32(d))
}

// Size returns the element size in bytes, or 0 for Unknown.
func (d DType) Size() int {
	switch d {
	case I8, U8:
		return 1
	case F16, BF16, I16, U16:
		return 2
	case F32, I32, U32:
		return 4
	case F64, I64, U64:
		return 8
	default:
		return 0
	}
}

// Parse maps a manifest dtype string to a DType.
func Parse(s string) (DType, error) {
	for d, name := range names {
		if name == s && d != Unknown {
			return d, nil
		}
	}
	return Unknown, fmt.Errorf("unknown dtype %q", s)
}

// DecodeF32 decodes up to n leading elements of raw into float32 values.
// Only the floating-point encodings are supported; it exists for inspection
// tooling, not for the runtime data path, which never reinterprets bytes.
func DecodeF32(d DType, raw []byte, n int) ([]float32, error) {
	size := d.Size()
	if size == 0 {
		return nil, fmt.Errorf("cannot decode %s", d)
	}
	if avail := len(raw) / size; n > avail {
		n = avail
	}

	out := make([]float32, 0, n)
	switch d {
	case F32:
		for i := 0; i < n; i++ {
			out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case F64:
		for i := 0; i < n; i++ {
			out = append(out, float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))))
		}
	case F16:
		for i := 0; i < n; i++ {
			out = append(out, float16.Frombits(binary.LittleEndian.Uint16(raw[i*2:])).Float32())
		}
	case BF16:
		out = append(out, bfloat16.DecodeFloat32(raw[:n*2])...)
	default:
		return nil, fmt.Errorf("cannot decode %s as float", d)
	}
	return out, nil
}
