package thread

import "github.com/anyos/threads/internal/thread/stats"

// Stats is a point-in-time snapshot of the runtime's counters. The
// counters are read individually, so a snapshot is not atomic across
// fields.
type Stats struct {
	// ThreadsCreated / ThreadsJoined / ThreadsDetached / ThreadsExited
	// count lifecycle transitions since process start (or ResetStats).
	ThreadsCreated  uint64
	ThreadsJoined   uint64
	ThreadsDetached uint64
	ThreadsExited   uint64

	// LookupRetries counts the spins a new thread took before its
	// creator published its identifier.
	LookupRetries uint64

	// LockYields counts scheduler yields taken inside contended mutex
	// acquisitions.
	LockYields uint64

	// CondWakeups counts condition waits that observed a signal.
	CondWakeups uint64

	// OnceFastHits counts Once.Do calls satisfied by the completed
	// fast path.
	OnceFastHits uint64
}

// GetStats returns the current runtime counters.
func GetStats() Stats {
	s := stats.Snapshot()
	return Stats{
		ThreadsCreated:  s.ThreadsCreated,
		ThreadsJoined:   s.ThreadsJoined,
		ThreadsDetached: s.ThreadsDetached,
		ThreadsExited:   s.ThreadsExited,
		LookupRetries:   s.LookupRetries,
		LockYields:      s.LockYields,
		CondWakeups:     s.CondWakeups,
		OnceFastHits:    s.OnceFastHits,
	}
}

// ResetStats zeroes every runtime counter.
func ResetStats() {
	stats.Reset()
}
