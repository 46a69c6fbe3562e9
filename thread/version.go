package thread

import (
	"golang.org/x/mod/semver"

	"github.com/anyos/threads/internal/thread/registry"
	"github.com/anyos/threads/internal/thread/tls"
)

// Version information for the threading runtime.
const (
	// Version is the current runtime version.
	Version = "0.1.0"
)

// Info describes the runtime's build-time limits.
type Info struct {
	// Version is the runtime version string.
	Version string

	// MaxThreads is the maximum number of simultaneously outstanding
	// threads.
	MaxThreads int

	// MaxKeys is the maximum number of TLS keys.
	MaxKeys int
}

// GetInfo returns the runtime's version and limits.
func GetInfo() Info {
	return Info{
		Version:    Version,
		MaxThreads: registry.Capacity,
		MaxKeys:    tls.KeysMax,
	}
}

// AtLeast reports whether the runtime version is at least min. min is a
// semver string with or without the leading "v". Malformed versions
// compare as too old.
func AtLeast(min string) bool {
	if min != "" && min[0] != 'v' {
		min = "v" + min
	}
	if !semver.IsValid(min) {
		return false
	}
	return semver.Compare("v"+Version, min) >= 0
}
