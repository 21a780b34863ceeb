// Package constants holds the per-model constant metadata table and the
// shared lookup structures the runtime materializes constants into.
package constants

import (
	"fmt"

	"github.com/samcharles93/loom/internal/dtype"
	"github.com/samcharles93/loom/internal/tensor"
)

// Kind classifies a constant. Values are stable and appear in manifests.
type Kind uint8

const (
	Unknown Kind = iota
	Parameter
	Buffer
	TensorConstant
	FoldedConstant
)

var kindNames = [...]string{"unknown", "parameter", "buffer", "tensor_constant", "folded_constant"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a manifest kind string to a Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown constant kind %q", s)
}

// Descriptor is the immutable metadata for one constant. Its index in the
// Registry is its identity; the raw bytes for consecutive descriptors are
// laid out back to back in the weights segment.
type Descriptor struct {
	Name           string
	Shape          []int64
	Stride         []int64
	DType          dtype.DType
	Offset         int64 // storage offset handed to the tensor boundary
	DataSize       uint64
	Layout         tensor.Layout
	OpaqueMetadata []byte
	OriginalFQN    string
	FromFolded     bool
	Kind           Kind
}

// Registry is the fixed table of constant descriptors, sized once at model
// construction.
type Registry struct {
	entries []Descriptor
}

// NewRegistry validates and freezes the descriptor table. Names must be
// non-empty and unique since the constant map is keyed by them.
func NewRegistry(entries []Descriptor) (*Registry, error) {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("constant %d has an empty name", i)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate constant name %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return &Registry{entries: entries}, nil
}

func (r *Registry) Len() int { return len(r.entries) }

// At returns the descriptor at index i. An out-of-range index is a
// configuration error.
func (r *Registry) At(i int) (*Descriptor, error) {
	if i < 0 || i >= len(r.entries) {
		return nil, fmt.Errorf("constant index %d out of range (have %d)", i, len(r.entries))
	}
	return &r.entries[i], nil
}
