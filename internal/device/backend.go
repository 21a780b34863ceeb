package device

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoBackend is returned when no backend is registered for a device kind.
var ErrNoBackend = errors.New("device: no backend registered")

// Ptr is an address inside device memory. In-process backends expose the
// backing bytes through Host; native backends carry a raw device address in
// Addr and leave Host nil.
type Ptr struct {
	Host []byte
	Addr uintptr
}

// IsNil reports whether the pointer refers to no storage at all, which is
// legal for zero-size constants.
func (p Ptr) IsNil() bool {
	return p.Host == nil && p.Addr == 0
}

// Buffer is a scoped device allocation. Free releases it; a Buffer whose
// ownership has been transferred must be freed exactly once by the new owner.
type Buffer interface {
	// Ptr returns an address offset bytes into the allocation.
	Ptr(offset uint64) (Ptr, error)
	Size() uint64
	Free() error
}

// Stream orders asynchronously enqueued device work. Its concrete type is
// backend-specific and opaque to the runtime.
type Stream any

// Event marks a completion point on a stream. One event is reused across
// runs: Arm marks it pending, Record enqueues the completion marker after
// the work already on the stream.
type Event interface {
	Arm()
	Record(s Stream) error
	// Query polls without blocking. An error means the device reported a
	// failure state for the recorded work, not "not yet finished".
	Query() (bool, error)
	Synchronize() error
	Destroy() error
}

// Backend is the capability boundary for one device kind: current-device
// bookkeeping, blob allocation, host-to-device copies, and completion
// events. Implementations need not be safe for concurrent mutation; the
// runtime serializes calls per model instance.
type Backend interface {
	Kind() Kind
	// Synchronous reports whether run bodies complete before returning,
	// making completion events plain flags rather than device markers.
	Synchronous() bool
	CurrentDevice() (int32, error)
	SetDevice(index int32) error
	Alloc(n uint64) (Buffer, error)
	// CopyToDevice synchronously copies src into device memory at dst.
	CopyToDevice(dst Ptr, src []byte) error
	NewEvent() (Event, error)
}

var (
	backendsMu sync.RWMutex
	backends   = map[Kind]func() (Backend, error){}
)

// Register installs a backend factory for a device kind. Accelerator
// backends built behind build tags (or living out of tree) register
// themselves from an init function.
func Register(k Kind, factory func() (Backend, error)) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[k] = factory
}

// New resolves a backend for the given kind.
func New(k Kind) (Backend, error) {
	backendsMu.RLock()
	factory, ok := backends[k]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s (rebuild with the matching backend enabled)", ErrNoBackend, k)
	}
	return factory()
}

func init() {
	Register(CPU, func() (Backend, error) { return NewHost(), nil })
}
