package constants

import (
	"fmt"

	"github.com/samcharles93/loom/internal/tensor"
)

// Map is the name -> handle table constants are published through. A *Map
// may be shared across model instances with identical weights; replacing it
// must be serialized externally against in-flight runs, no locking happens
// here.
type Map struct {
	m map[string]tensor.Handle
}

func NewMap(capacity int) *Map {
	return &Map{m: make(map[string]tensor.Handle, capacity)}
}

func (m *Map) Insert(name string, h tensor.Handle) { m.m[name] = h }

func (m *Map) Get(name string) (tensor.Handle, bool) {
	h, ok := m.m[name]
	return h, ok
}

func (m *Map) Len() int { return len(m.m) }

func (m *Map) Range(f func(name string, h tensor.Handle) bool) {
	for name, h := range m.m {
		if !f(name, h) {
			return
		}
	}
}

// Array is the registry-ordered handle table, index-aligned with the
// Registry. Slots whose name is absent from the map stay nil; that is
// tolerated, not all constants need be present.
type Array struct {
	handles []tensor.Handle
}

func NewArray(n int) *Array {
	return &Array{handles: make([]tensor.Handle, n)}
}

func (a *Array) Len() int { return len(a.handles) }

// At returns the handle at index i, which may be nil. An out-of-range index
// is a configuration error.
func (a *Array) At(i int) (tensor.Handle, error) {
	if i < 0 || i >= len(a.handles) {
		return nil, fmt.Errorf("constant index %d out of range (have %d)", i, len(a.handles))
	}
	return a.handles[i], nil
}

func (a *Array) Set(i int, h tensor.Handle) error {
	if i < 0 || i >= len(a.handles) {
		return fmt.Errorf("constant index %d out of range (have %d)", i, len(a.handles))
	}
	a.handles[i] = h
	return nil
}

// Resize grows or shrinks the array to n slots, clearing it.
func (a *Array) Resize(n int) {
	a.handles = make([]tensor.Handle, n)
}
