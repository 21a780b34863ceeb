package weights

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/loom/pkg/wseg"
)

func TestLinkedSource(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3}
	s := NewLinked(data)
	if &s.Bytes()[0] != &data[0] {
		t.Fatal("linked source must alias the provided blob")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenAtRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "artifact.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()

	payload := []byte("packed constant bytes")
	hdr, err := wseg.Append(f, payload)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	s, err := OpenAt(path, hdr.Encode())
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	defer func() { _ = s.Close() }()

	if string(s.Bytes()) != string(payload) {
		t.Fatalf("payload = %q, want %q", s.Bytes(), payload)
	}
}

func TestOpenAtBadHeader(t *testing.T) {
	t.Parallel()

	if _, err := OpenAt("ignored", make([]byte, 4)); !errors.Is(err, wseg.ErrCorrupt) {
		t.Fatalf("error = %v, want wseg.ErrCorrupt", err)
	}
}
