// Package device describes execution devices and the backend capability
// boundary the runtime uses to talk to them.
package device

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind identifies a device backend family.
type Kind int32

const (
	CPU Kind = iota
	CUDA
	XPU
)

func (k Kind) String() string {
	switch k {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case XPU:
		return "xpu"
	default:
		return fmt.Sprintf("kind(%d)", int32(k))
	}
}

// Descriptor names a single device: a kind plus an ordinal index.
// Index -1 means "whatever device of that kind is currently active".
type Descriptor struct {
	Kind  Kind
	Index int32
}

func (d Descriptor) String() string {
	if d.Index < 0 {
		return d.Kind.String()
	}
	return d.Kind.String() + ":" + strconv.Itoa(int(d.Index))
}

// Valid device strings are cpu, cuda, xpu, optionally suffixed with an index
// such as cuda:0, cuda:1. The list grows as new backends are supported.
var deviceRe = regexp.MustCompile(`^(cpu|cuda|xpu)(:([0-9]+))?$`)

// Parse derives a Descriptor from a device string. A missing index is
// recorded as -1; the caller decides whether that means "query the backend
// for the current device". Malformed strings are a configuration error.
func Parse(s string) (Descriptor, error) {
	m := deviceRe.FindStringSubmatch(s)
	if m == nil {
		return Descriptor{}, fmt.Errorf("invalid device %q", s)
	}

	var kind Kind
	switch m[1] {
	case "cpu":
		kind = CPU
	case "cuda":
		kind = CUDA
	case "xpu":
		kind = XPU
	}

	index := int32(-1)
	if m[3] != "" {
		n, err := strconv.ParseInt(m[3], 10, 32)
		if err != nil {
			return Descriptor{}, fmt.Errorf("invalid device index in %q: %w", s, err)
		}
		index = int32(n)
	}

	return Descriptor{Kind: kind, Index: index}, nil
}
