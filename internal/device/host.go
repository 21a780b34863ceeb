package device

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Host is the built-in synchronous backend. Run bodies execute on the
// calling goroutine, so its events are plain flags and its "device memory"
// is ordinary heap memory.
type Host struct{}

// NewHost returns the host backend.
func NewHost() *Host { return &Host{} }

func (*Host) Kind() Kind        { return CPU }
func (*Host) Synchronous() bool { return true }

func (*Host) CurrentDevice() (int32, error) { return 0, nil }

func (*Host) SetDevice(index int32) error {
	if index != 0 {
		return fmt.Errorf("host backend has a single device, cannot switch to %d", index)
	}
	return nil
}

func (*Host) Alloc(n uint64) (Buffer, error) {
	return &hostBuffer{data: make([]byte, n)}, nil
}

func (*Host) CopyToDevice(dst Ptr, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	if dst.Host == nil {
		return errors.New("host copy destination is not host-backed")
	}
	if len(dst.Host) < len(src) {
		return fmt.Errorf("host copy overflows destination: %d > %d", len(src), len(dst.Host))
	}
	copy(dst.Host, src)
	return nil
}

func (*Host) NewEvent() (Event, error) { return &hostEvent{}, nil }

type hostBuffer struct {
	data  []byte
	freed bool
}

func (b *hostBuffer) Ptr(offset uint64) (Ptr, error) {
	if b.freed {
		return Ptr{}, errors.New("buffer already freed")
	}
	if offset > uint64(len(b.data)) {
		return Ptr{}, fmt.Errorf("offset %d out of range (size %d)", offset, len(b.data))
	}
	return Ptr{Host: b.data[offset:]}, nil
}

func (b *hostBuffer) Size() uint64 { return uint64(len(b.data)) }

func (b *hostBuffer) Free() error {
	if b.freed {
		return errors.New("buffer already freed")
	}
	b.freed = true
	b.data = nil
	return nil
}

// hostEvent is the synchronous completion flag. Arm and Record run on the
// controlling goroutine; Query may be called from any goroutine.
type hostEvent struct {
	done atomic.Bool
}

func (e *hostEvent) Arm()                  { e.done.Store(false) }
func (e *hostEvent) Record(_ Stream) error { e.done.Store(true); return nil }
func (e *hostEvent) Query() (bool, error)  { return e.done.Load(), nil }
func (e *hostEvent) Synchronize() error    { return nil }
func (e *hostEvent) Destroy() error        { return nil }
