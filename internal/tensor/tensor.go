// Package tensor defines the tensor-creation boundary between the runtime
// and whatever tensor library an embedder links in. The runtime never
// constructs tensor objects itself; it hands raw storage plus metadata
// across a Factory and receives opaque handles back.
package tensor

import (
	"fmt"

	"github.com/samcharles93/loom/internal/device"
	"github.com/samcharles93/loom/internal/dtype"
)

// Layout describes how a tensor's elements are arranged in storage.
type Layout int32

const (
	LayoutStrided Layout = iota
	LayoutOpaque
)

func (l Layout) String() string {
	switch l {
	case LayoutStrided:
		return "strided"
	case LayoutOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("layout(%d)", int32(l))
	}
}

// ParseLayout maps a manifest layout string to a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "strided":
		return LayoutStrided, nil
	case "opaque":
		return LayoutOpaque, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", s)
	}
}

// Meta carries everything a tensor library needs to wrap raw storage.
// OpaqueMetadata is passed through untouched for layouts the runtime does
// not interpret.
type Meta struct {
	Shape          []int64
	Stride         []int64
	StorageOffset  int64
	DType          dtype.DType
	Device         device.Descriptor
	Layout         Layout
	OpaqueMetadata []byte
}

// Numel returns the number of elements described by the shape.
func (m Meta) Numel() int64 {
	n := int64(1)
	for _, d := range m.Shape {
		n *= d
	}
	return n
}

// Handle is an opaque reference to a tensor created through a Factory.
// Ownership follows the call that produced or consumed it; handles are
// reference-like and may share underlying storage.
type Handle interface {
	Meta() Meta
}

// Factory is the tensor-creation boundary. FromBlob wraps the given storage
// without copying; the storage must stay live for the handle's lifetime.
type Factory interface {
	FromBlob(data device.Ptr, meta Meta) (Handle, error)
}
