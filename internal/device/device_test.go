package device

import (
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	valid := []struct {
		in    string
		kind  Kind
		index int32
	}{
		{"cpu", CPU, -1},
		{"cpu:0", CPU, 0},
		{"cuda", CUDA, -1},
		{"cuda:0", CUDA, 0},
		{"cuda:1", CUDA, 1},
		{"cuda:12", CUDA, 12},
		{"xpu", XPU, -1},
		{"xpu:3", XPU, 3},
	}
	for _, tc := range valid {
		d, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if d.Kind != tc.kind || d.Index != tc.index {
			t.Fatalf("Parse(%q) = %+v, want kind=%v index=%d", tc.in, d, tc.kind, tc.index)
		}
	}

	invalid := []string{
		"", "gpu", "cuda:", "cuda:x", "cuda:-1", "CUDA", "cpu:1:2",
		" cpu", "cpu ", "cuda:0x1", "tpu:0",
	}
	for _, in := range invalid {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected configuration error", in)
		}
	}
}

func TestDescriptorString(t *testing.T) {
	t.Parallel()

	if s := (Descriptor{Kind: CUDA, Index: 1}).String(); s != "cuda:1" {
		t.Fatalf("String() = %q, want cuda:1", s)
	}
	if s := (Descriptor{Kind: CPU, Index: -1}).String(); s != "cpu" {
		t.Fatalf("String() = %q, want cpu", s)
	}
}

func TestNewResolvesHost(t *testing.T) {
	t.Parallel()

	b, err := New(CPU)
	if err != nil {
		t.Fatalf("New(CPU): %v", err)
	}
	if b.Kind() != CPU || !b.Synchronous() {
		t.Fatal("host backend misreports its capabilities")
	}
}

func TestNewUnregisteredKind(t *testing.T) {
	t.Parallel()

	if _, err := New(CUDA); err == nil {
		t.Fatal("expected error for unregistered backend kind")
	}
}

func TestHostEventLifecycle(t *testing.T) {
	t.Parallel()

	h := NewHost()
	ev, err := h.NewEvent()
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	done, err := ev.Query()
	if err != nil || done {
		t.Fatalf("fresh event: done=%v err=%v, want pending", done, err)
	}

	ev.Arm()
	if err := ev.Record(nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	done, err = ev.Query()
	if err != nil || !done {
		t.Fatalf("recorded event: done=%v err=%v, want complete", done, err)
	}

	// Repeated polling must not change observable state.
	for i := 0; i < 3; i++ {
		again, err := ev.Query()
		if err != nil || again != done {
			t.Fatalf("poll %d: done=%v err=%v, want stable %v", i, again, err, done)
		}
	}

	if err := ev.Synchronize(); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}
	if err := ev.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
}

func TestHostBuffer(t *testing.T) {
	t.Parallel()

	h := NewHost()
	buf, err := h.Alloc(128)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if buf.Size() != 128 {
		t.Fatalf("Size() = %d, want 128", buf.Size())
	}

	p, err := buf.Ptr(64)
	if err != nil {
		t.Fatalf("Ptr: %v", err)
	}
	if err := h.CopyToDevice(p, []byte{1, 2, 3}); err != nil {
		t.Fatalf("CopyToDevice: %v", err)
	}

	base, err := buf.Ptr(0)
	if err != nil {
		t.Fatalf("Ptr(0): %v", err)
	}
	if base.Host[64] != 1 || base.Host[65] != 2 || base.Host[66] != 3 {
		t.Fatal("copy did not land at the expected offset")
	}

	if _, err := buf.Ptr(129); err == nil {
		t.Fatal("expected out-of-range error")
	}

	if err := buf.Free(); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if err := buf.Free(); err == nil {
		t.Fatal("expected double-free error")
	}
}

func TestHostSetDevice(t *testing.T) {
	t.Parallel()

	h := NewHost()
	if err := h.SetDevice(0); err != nil {
		t.Fatalf("SetDevice(0): %v", err)
	}
	if err := h.SetDevice(1); err == nil {
		t.Fatal("expected error switching host backend to device 1")
	}
}
