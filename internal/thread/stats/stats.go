// Package stats keeps process-wide counters for the threading runtime.
//
// The counters are plain atomics bumped from the lifecycle and
// synchronization paths. They cost one uncontended atomic add each and
// are safe to read at any time; the stress tool exports them as
// Prometheus gauges.
package stats

import "sync/atomic"

var (
	threadsCreated  atomic.Uint64
	threadsJoined   atomic.Uint64
	threadsDetached atomic.Uint64
	threadsExited   atomic.Uint64

	// lookupRetries counts trampoline self-discovery retries: iterations
	// where a new thread looked for its registry record before the
	// creator had published its identifier.
	lookupRetries atomic.Uint64

	// lockYields counts scheduler yields taken inside mutex acquisition
	// loops. A rough contention signal.
	lockYields atomic.Uint64

	// condWakeups counts condition-variable waits that observed a signal.
	condWakeups atomic.Uint64

	// onceFastHits counts once() calls satisfied by the completed
	// fast path.
	onceFastHits atomic.Uint64
)

// Stats is a point-in-time snapshot of all counters.
type Stats struct {
	ThreadsCreated  uint64
	ThreadsJoined   uint64
	ThreadsDetached uint64
	ThreadsExited   uint64
	LookupRetries   uint64
	LockYields      uint64
	CondWakeups     uint64
	OnceFastHits    uint64
}

func ThreadCreated()  { threadsCreated.Add(1) }
func ThreadJoined()   { threadsJoined.Add(1) }
func ThreadDetached() { threadsDetached.Add(1) }
func ThreadExited()   { threadsExited.Add(1) }
func LookupRetry()    { lookupRetries.Add(1) }
func LockYield()      { lockYields.Add(1) }
func CondWakeup()     { condWakeups.Add(1) }
func OnceFastHit()    { onceFastHits.Add(1) }

// Snapshot returns the current counter values. The counters are read
// individually, so the snapshot is not atomic across fields; it is meant
// for reporting, not for invariant checks.
func Snapshot() Stats {
	return Stats{
		ThreadsCreated:  threadsCreated.Load(),
		ThreadsJoined:   threadsJoined.Load(),
		ThreadsDetached: threadsDetached.Load(),
		ThreadsExited:   threadsExited.Load(),
		LookupRetries:   lookupRetries.Load(),
		LockYields:      lockYields.Load(),
		CondWakeups:     condWakeups.Load(),
		OnceFastHits:    onceFastHits.Load(),
	}
}

// Reset zeroes every counter. Used by tests and by the stress tool
// between scenarios.
func Reset() {
	threadsCreated.Store(0)
	threadsJoined.Store(0)
	threadsDetached.Store(0)
	threadsExited.Store(0)
	lookupRetries.Store(0)
	lockYields.Store(0)
	condWakeups.Store(0)
	onceFastHits.Store(0)
}
