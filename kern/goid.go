// Goroutine ID extraction for the hosted simulation.
//
// The simulated kernel needs a stable per-goroutine key to hand out thread
// identifiers: goroutines that the runtime did not create (the process main
// thread, test goroutines) must still get a TID on their first CurrentID
// call. There is no public API for the goroutine ID, so we parse the first
// line of runtime.Stack output.
//
// Format: "goroutine 123 [running]:\n..."
//
// This is slow (~1.5µs per call), which the simulation accepts in exchange
// for needing no linkname tricks or per-Go-version struct offsets.

package kern

import "runtime"

// goroutineID returns the current goroutine's ID, or 0 if the stack trace
// could not be parsed.
func goroutineID() int64 {
	// We only need the first line, so a small buffer is sufficient.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts the goroutine ID from stack trace bytes.
//
// Expected format: "goroutine 123 [running]:..."
// Returns the numeric ID (123 in this example) or 0 if the format is
// invalid. Direct byte parsing, no regex, no allocations.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}

	var gid int64
	for i := len(prefix); i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			// Non-digit terminates the ID (the space before "[running]").
			break
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
