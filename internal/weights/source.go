// Package weights provides the raw-constants-source capability: a byte view
// of the packed constant bytes that the loader consumes sequentially in
// registry order. Two implementations exist, one over a blob linked into
// the artifact and one over a segment self-extracted from the artifact file.
package weights

import (
	"fmt"

	"github.com/samcharles93/loom/pkg/wseg"
)

// Source exposes the packed constant bytes. The returned slice stays valid
// until Close; host-resident constants alias it directly.
type Source interface {
	Bytes() []byte
	Close() error
}

// Linked is a Source over a constants blob linked into the artifact, for
// example a go:embed data symbol emitted next to the generated model.
type Linked struct {
	data []byte
}

func NewLinked(data []byte) *Linked { return &Linked{data: data} }

func (l *Linked) Bytes() []byte { return l.data }
func (l *Linked) Close() error  { return nil }

// Mapped is a Source over a self-extracted weights segment. In this mode
// the linked symbol holds only the 16-byte segment descriptor and the
// actual bytes live at the tail of the artifact file.
type Mapped struct {
	mapping *wseg.Mapping
}

// OpenSelf extracts the weights segment appended to the running binary.
// header is the embedded 16-byte segment descriptor.
func OpenSelf(header []byte) (*Mapped, error) {
	hdr, err := wseg.ParseHeader(header)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	m, err := wseg.SelfExtract(hdr)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	return &Mapped{mapping: m}, nil
}

// OpenAt extracts the weights segment appended to an explicit artifact
// path, for embedders whose artifact is not the running binary itself.
func OpenAt(path string, header []byte) (*Mapped, error) {
	hdr, err := wseg.ParseHeader(header)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	m, err := wseg.Extract(path, hdr)
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	return &Mapped{mapping: m}, nil
}

func (m *Mapped) Bytes() []byte { return m.mapping.Payload() }
func (m *Mapped) Close() error  { return m.mapping.Close() }
