// Package wseg implements the loom weights segment: raw constant bytes
// appended to the tail of a runtime artifact, described by a fixed 16-byte
// header embedded elsewhere in that artifact.
//
// On-disk layout of the appended region:
//
//	... artifact bytes ...
//	zero padding up to a SegmentAlign file offset
//	payload (constants, packed back to back in registry order)
//	trailing magic (8 bytes, echoes the header magic)
//
// The header [size u64][magic u64] is not part of the appended region; it
// travels inside the artifact (a linked-in data symbol, a manifest, or a
// sidecar file) and is what makes self-extraction possible.
package wseg

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic terminates an appended weights segment. ASCII "loomwsg1".
	Magic uint64 = 0x6c6f6f6d77736731

	// HeaderSize is the size of the embedded segment descriptor.
	HeaderSize = 16

	// TrailerSize is the trailing magic echo at the end of the segment.
	TrailerSize = 8

	// SegmentAlign is the required file-offset alignment of the appended
	// region. 16 KiB covers every page size the mapping may run under.
	SegmentAlign = 16 * 1024
)

// Header describes an appended weights segment. Size counts the whole
// appended region including the trailing magic.
type Header struct {
	Size  uint64
	Magic uint64
}

// ParseHeader decodes the 16-byte segment descriptor.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrCorrupt, HeaderSize, len(b))
	}
	h := Header{
		Size:  binary.LittleEndian.Uint64(b[0:8]),
		Magic: binary.LittleEndian.Uint64(b[8:16]),
	}
	if h.Magic != Magic {
		return Header{}, fmt.Errorf("%w: 0x%016x", ErrBadMagic, h.Magic)
	}
	if h.Size < TrailerSize {
		return Header{}, fmt.Errorf("%w: segment size %d below trailer", ErrCorrupt, h.Size)
	}
	return h, nil
}

// Encode renders the header in its on-disk form.
func (h Header) Encode() []byte {
	out := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(out[0:8], h.Size)
	binary.LittleEndian.PutUint64(out[8:16], h.Magic)
	return out
}
