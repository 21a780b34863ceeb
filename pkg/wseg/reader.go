package wseg

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Mapping is a read-only view of an extracted weights segment. It must be
// closed to release the mapping; the payload slices alias it and must not
// outlive it.
type Mapping struct {
	data    []byte
	mmapped bool
}

// Bytes returns the whole segment including the trailing magic.
func (m *Mapping) Bytes() []byte { return m.data }

// Payload returns the constant bytes, excluding the trailing magic.
func (m *Mapping) Payload() []byte { return m.data[:len(m.data)-TrailerSize] }

// Close releases the mapping. The Mapping must not be used afterwards.
func (m *Mapping) Close() error {
	if m == nil || m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if m.mmapped {
		return unix.Munmap(data)
	}
	return nil
}

// Extract locates and maps the weights segment appended to the artifact at
// path, as described by hdr. The segment is expected to occupy the last
// hdr.Size bytes of the file, starting at a SegmentAlign boundary; the
// alignment is rejected before any mapping attempt.
func Extract(path string, hdr Header) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wseg: open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("wseg: stat artifact: %w", err)
	}

	size := stat.Size()
	if hdr.Size < TrailerSize || int64(hdr.Size) > size {
		return nil, fmt.Errorf("%w: segment size %d does not fit file of %d bytes", ErrCorrupt, hdr.Size, size)
	}
	if hdr.Size > uint64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: segment too large to map on this architecture", ErrCorrupt)
	}

	offset := size - int64(hdr.Size)
	if offset&(SegmentAlign-1) != 0 {
		return nil, fmt.Errorf("%w: segment starts at file offset %d", ErrMisaligned, offset)
	}

	data, err := unix.Mmap(int(f.Fd()), offset, int(hdr.Size), unix.PROT_READ, unix.MAP_PRIVATE)
	mmapped := true
	if err != nil {
		// Fallback for filesystems without mmap support.
		data, err = readAt(f, offset, int(hdr.Size))
		if err != nil {
			return nil, fmt.Errorf("wseg: read segment: %w", err)
		}
		mmapped = false
	}
	m := &Mapping{data: data, mmapped: mmapped}

	if got := trailer(m.data); got != hdr.Magic {
		_ = m.Close()
		return nil, fmt.Errorf("%w: trailing magic 0x%016x, want 0x%016x", ErrCorrupt, got, hdr.Magic)
	}
	return m, nil
}

// SelfExtract maps the weights segment appended to the running binary
// itself, resolving the binary's path from the OS.
func SelfExtract(hdr Header) (*Mapping, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("wseg: resolve own binary path: %w", err)
	}
	return Extract(path, hdr)
}

func trailer(data []byte) uint64 {
	return binary.LittleEndian.Uint64(data[len(data)-TrailerSize:])
}

func readAt(r io.ReaderAt, off int64, size int) ([]byte, error) {
	out := make([]byte, size)
	var n int
	for n < size {
		m, err := r.ReadAt(out[n:], off+int64(n))
		n += m
		if err == nil {
			continue
		}
		if err == io.EOF && n == size {
			break
		}
		return nil, err
	}
	return out, nil
}
