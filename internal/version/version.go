// Package version carries the build provenance stamped into release
// binaries. Dev builds without ldflags fall back to a dated pseudo-version
// so logs and the health endpoint always report something traceable.
package version

import "time"

// Set at link time:
//
//	-ldflags "-X .../internal/version.Version=v0.3.0 -X .../internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Resolve returns the stamped build info, synthesizing a dev pseudo-version
// when no release version was injected.
func Resolve() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}
	if info.Version == "" {
		stamp := info.BuildTime
		if stamp == "" {
			stamp = time.Now().UTC().Format("20060102150405")
		}
		info.Version = "v0.0.0-dev." + stamp
	}
	return info
}

// String renders the version with an abbreviated commit, e.g.
// "v0.3.0+1a2b3c4d9e".
func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	return info.Version + "+" + shortCommit(info.Commit)
}

func shortCommit(commit string) string {
	if len(commit) <= 10 {
		return commit
	}
	return commit[:10]
}
