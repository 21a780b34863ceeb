// Package manifest reads and writes the JSON model manifest that travels
// with a compiled artifact: the constant table in weights-segment order,
// the input/output name tables, and the serialized in/out structure specs.
package manifest

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/loom/internal/constants"
	"github.com/samcharles93/loom/internal/dtype"
	"github.com/samcharles93/loom/internal/tensor"
)

// Constant is one row of the manifest constant table. Order matters: the
// raw bytes of consecutive constants sit back to back in the weights
// segment, so the table index doubles as the segment position.
type Constant struct {
	Name           string  `json:"name"`
	Shape          []int64 `json:"shape"`
	Stride         []int64 `json:"stride,omitempty"`
	DType          string  `json:"dtype"`
	Offset         int64   `json:"offset,omitempty"`
	DataSize       uint64  `json:"data_size"`
	Layout         string  `json:"layout,omitempty"`
	OpaqueMetadata []byte  `json:"opaque_metadata,omitempty"`
	OriginalFQN    string  `json:"original_fqn,omitempty"`
	FromFolded     bool    `json:"from_folded,omitempty"`
	Kind           string  `json:"kind,omitempty"`
}

// Manifest describes one compiled model artifact.
type Manifest struct {
	Device    string     `json:"device"`
	Inputs    []string   `json:"inputs"`
	Outputs   []string   `json:"outputs"`
	InSpec    string     `json:"in_spec,omitempty"`
	OutSpec   string     `json:"out_spec,omitempty"`
	Constants []Constant `json:"constants"`
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	for i, c := range m.Constants {
		if c.Name == "" {
			return nil, fmt.Errorf("manifest: constant %d has no name", i)
		}
		if _, err := dtype.Parse(c.DType); err != nil {
			return nil, fmt.Errorf("manifest: constant %q: %w", c.Name, err)
		}
	}
	return &m, nil
}

// Encode renders the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return out, nil
}

// Registry converts the constant table into the runtime's descriptor
// registry, resolving dtype, layout and kind strings.
func (m *Manifest) Registry() (*constants.Registry, error) {
	entries := make([]constants.Descriptor, len(m.Constants))
	for i, c := range m.Constants {
		dt, err := dtype.Parse(c.DType)
		if err != nil {
			return nil, fmt.Errorf("manifest: constant %q: %w", c.Name, err)
		}
		layout, err := tensor.ParseLayout(c.Layout)
		if err != nil {
			return nil, fmt.Errorf("manifest: constant %q: %w", c.Name, err)
		}
		kind := constants.Unknown
		if c.Kind != "" {
			kind, err = constants.ParseKind(c.Kind)
			if err != nil {
				return nil, fmt.Errorf("manifest: constant %q: %w", c.Name, err)
			}
		}
		entries[i] = constants.Descriptor{
			Name:           c.Name,
			Shape:          c.Shape,
			Stride:         c.Stride,
			DType:          dt,
			Offset:         c.Offset,
			DataSize:       c.DataSize,
			Layout:         layout,
			OpaqueMetadata: c.OpaqueMetadata,
			OriginalFQN:    c.OriginalFQN,
			FromFolded:     c.FromFolded,
			Kind:           kind,
		}
	}
	reg, err := constants.NewRegistry(entries)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return reg, nil
}

// TotalDataSize sums the raw byte footprint of every constant, which equals
// the payload length of the weights segment.
func (m *Manifest) TotalDataSize() uint64 {
	var total uint64
	for _, c := range m.Constants {
		total += c.DataSize
	}
	return total
}
