package rt

import (
	"errors"
	"fmt"

	"github.com/samcharles93/loom/internal/device"
	"github.com/samcharles93/loom/internal/tensor"
)

// fakeBackend models an asynchronous accelerator: events stay pending until
// the test completes them, and every allocation and copy is observable.
type fakeBackend struct {
	current  int32
	setCalls []int32
	allocs   []*fakeBuffer
	events   []*fakeEvent

	allocErr error
	eventErr error
}

func (b *fakeBackend) Kind() device.Kind { return device.CUDA }
func (b *fakeBackend) Synchronous() bool { return false }

func (b *fakeBackend) CurrentDevice() (int32, error) { return b.current, nil }

func (b *fakeBackend) SetDevice(index int32) error {
	b.setCalls = append(b.setCalls, index)
	b.current = index
	return nil
}

func (b *fakeBackend) Alloc(n uint64) (device.Buffer, error) {
	if b.allocErr != nil {
		return nil, b.allocErr
	}
	buf := &fakeBuffer{data: make([]byte, n)}
	b.allocs = append(b.allocs, buf)
	return buf, nil
}

func (b *fakeBackend) CopyToDevice(dst device.Ptr, src []byte) error {
	if dst.Host == nil {
		return errors.New("fake copy destination is not backed")
	}
	if len(dst.Host) < len(src) {
		return fmt.Errorf("fake copy overflows destination: %d > %d", len(src), len(dst.Host))
	}
	copy(dst.Host, src)
	return nil
}

func (b *fakeBackend) NewEvent() (device.Event, error) {
	if b.eventErr != nil {
		return nil, b.eventErr
	}
	ev := &fakeEvent{}
	b.events = append(b.events, ev)
	return ev, nil
}

type fakeBuffer struct {
	data  []byte
	freed bool
}

func (f *fakeBuffer) Ptr(offset uint64) (device.Ptr, error) {
	if f.freed {
		return device.Ptr{}, errors.New("buffer already freed")
	}
	if offset > uint64(len(f.data)) {
		return device.Ptr{}, fmt.Errorf("offset %d out of range (size %d)", offset, len(f.data))
	}
	return device.Ptr{Host: f.data[offset:]}, nil
}

func (f *fakeBuffer) Size() uint64 { return uint64(len(f.data)) }

func (f *fakeBuffer) Free() error {
	if f.freed {
		return errors.New("buffer already freed")
	}
	f.freed = true
	return nil
}

// fakeEvent stays pending after Record until the test flips complete,
// mimicking a device-side completion marker.
type fakeEvent struct {
	armed     bool
	recorded  bool
	complete  bool
	destroyed bool
	queryErr  error
}

func (e *fakeEvent) Arm() {
	e.armed = true
	e.recorded = false
	e.complete = false
}

func (e *fakeEvent) Record(_ device.Stream) error {
	e.recorded = true
	return nil
}

func (e *fakeEvent) Query() (bool, error) {
	if e.queryErr != nil {
		return false, e.queryErr
	}
	return e.recorded && e.complete, nil
}

func (e *fakeEvent) Synchronize() error {
	e.complete = true
	return nil
}

func (e *fakeEvent) Destroy() error {
	e.destroyed = true
	return nil
}

func dummyPtr(n int) device.Ptr { return device.Ptr{Host: make([]byte, n)} }

// fakeBody counts invocations and hands back canned folded constants.
type fakeBody struct {
	runs    int
	folds   int
	runErr  error
	foldErr error
	folded  map[string]tensor.Handle
}

func (b *fakeBody) Run(_, _ []tensor.Handle, _ device.Stream, _ ProxyExecutor) error {
	b.runs++
	return b.runErr
}

func (b *fakeBody) ConstFold(_ device.Stream, _ ProxyExecutor, _ bool) (map[string]tensor.Handle, error) {
	b.folds++
	if b.foldErr != nil {
		return nil, b.foldErr
	}
	return b.folded, nil
}
