package wseg

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const padBufSize = 4096

// Append pads f out to the next SegmentAlign boundary, appends the payload
// followed by the trailing magic, and returns the header the artifact must
// embed for later extraction.
func Append(f *os.File, payload []byte) (Header, error) {
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return Header{}, fmt.Errorf("wseg: seek artifact end: %w", err)
	}

	if pad := padTo(end, SegmentAlign); pad > 0 {
		if err := writeZeros(f, pad); err != nil {
			return Header{}, fmt.Errorf("wseg: pad artifact: %w", err)
		}
	}

	if err := writeFull(f, payload); err != nil {
		return Header{}, fmt.Errorf("wseg: write payload: %w", err)
	}

	var magic [TrailerSize]byte
	binary.LittleEndian.PutUint64(magic[:], Magic)
	if err := writeFull(f, magic[:]); err != nil {
		return Header{}, fmt.Errorf("wseg: write trailer: %w", err)
	}

	if err := f.Sync(); err != nil {
		return Header{}, fmt.Errorf("wseg: sync artifact: %w", err)
	}

	return Header{Size: uint64(len(payload)) + TrailerSize, Magic: Magic}, nil
}

func padTo(pos, align int64) int {
	if mod := pos % align; mod != 0 {
		return int(align - mod)
	}
	return 0
}

func writeZeros(w io.Writer, n int) error {
	buf := make([]byte, padBufSize)
	for n > 0 {
		chunk := min(n, len(buf))
		if err := writeFull(w, buf[:chunk]); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
