package version

import (
	"strings"
	"testing"
)

func TestResolveDevFallback(t *testing.T) {
	info := Resolve()
	if info.Version == "" {
		t.Fatal("Resolve must always produce a version")
	}
	if Version == "" && !strings.HasPrefix(info.Version, "v0.0.0-dev.") {
		t.Fatalf("dev build version = %q, want v0.0.0-dev. prefix", info.Version)
	}
}

func TestShortCommit(t *testing.T) {
	t.Parallel()

	if got := shortCommit("1a2b3c4d9e0f1a2b3c4d"); got != "1a2b3c4d9e" {
		t.Fatalf("shortCommit = %q, want 10-char prefix", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("shortCommit must pass short hashes through, got %q", got)
	}
}
