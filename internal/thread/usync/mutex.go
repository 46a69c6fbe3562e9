// Package usync implements spin-based mutual exclusion and spin-wait
// signaling for a kernel that has no wait queue.
//
// Both primitives bound CPU burn with scheduler yields rather than
// blocking: a contended Lock yields after a short burst of failed
// attempts, and a condition Wait yields on every check of the sequence
// counter. Threads in these loops stay runnable; they give up the rest
// of each quantum, nothing more.
package usync

import (
	"sync/atomic"

	"github.com/anyos/threads/internal/thread/stats"
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

// spinBurst is the number of consecutive failed acquisition attempts
// before a contended Lock yields its quantum.
const spinBurst = 16

// Mutex is a spin-based mutual-exclusion lock.
//
// There is no deadlock detection: a thread that locks a mutex it already
// holds spins forever. There is no recursion and no fairness.
//
// The zero value is an unlocked mutex bound to the process-default
// kernel; Bind attaches a specific one.
type Mutex struct {
	sys kern.Sys

	// word is 0 when free, 1 when held.
	word atomic.Int32

	// owner holds the locker's thread identifier. Informational only,
	// never consulted for correctness.
	owner atomic.Uint32
}

// Bind attaches the mutex to a kernel instance. Must be called before
// first use if the process default is not wanted.
func (m *Mutex) Bind(sys kern.Sys) {
	m.sys = sys
}

// kernel resolves the bound kernel without caching: writing the field
// here would race between concurrent first lockers.
func (m *Mutex) kernel() kern.Sys {
	if m.sys != nil {
		return m.sys
	}
	return kern.Default()
}

// Lock acquires the mutex, spinning with periodic yields under
// contention.
func (m *Mutex) Lock() error {
	if m == nil {
		return uerror.ErrInvalidArgument
	}
	sys := m.kernel()

	// CAS loop. After spinBurst consecutive failures, yield to the
	// scheduler; this bounds CPU burn without a wait queue.
	spins := 0
	for !m.word.CompareAndSwap(0, 1) {
		spins++
		if spins >= spinBurst {
			stats.LockYield()
			sys.Yield()
			spins = 0
		}
	}

	m.owner.Store(uint32(sys.CurrentID()))
	return nil
}

// TryLock makes exactly one acquisition attempt and reports whether it
// succeeded.
func (m *Mutex) TryLock() bool {
	if m == nil {
		return false
	}
	if !m.word.CompareAndSwap(0, 1) {
		return false
	}
	m.owner.Store(uint32(m.kernel().CurrentID()))
	return true
}

// Unlock releases the mutex. The owner field is cleared before the lock
// word, so a diagnostic read never sees a free lock with a stale owner.
func (m *Mutex) Unlock() error {
	if m == nil {
		return uerror.ErrInvalidArgument
	}
	m.owner.Store(0)
	m.word.Store(0)
	return nil
}

// Owner returns the identifier recorded by the current holder, or 0.
// Diagnostics only; the value can be stale by the time it is read.
func (m *Mutex) Owner() kern.TID {
	return kern.TID(m.owner.Load())
}
