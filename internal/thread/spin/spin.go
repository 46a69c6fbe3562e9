// Package spin implements the single-word spinlock protecting the
// runtime's shared tables.
//
// The kernel has no wait queue, so contention is handled by yielding the
// remainder of the quantum and retrying. The lock is intentionally
// minimal:
//
//   - no fairness guarantee and no bound on acquisition latency
//   - no recursion: reacquiring from the same thread deadlocks
//
// Critical sections guarded by it must therefore be short and must never
// call back into code that takes the same lock.
package spin

import (
	"sync/atomic"

	"github.com/anyos/threads/kern"
)

// Lock is a single-word spinlock. The zero value is an unlocked lock.
//
// Thread Safety: Acquire/Release are safe for concurrent use; that is
// the point.
type Lock struct {
	// word is 0 when free, 1 when held.
	word atomic.Int32
}

// Acquire claims the lock, yielding to the kernel scheduler after every
// failed attempt. Loops indefinitely; there is no timeout anywhere in
// this runtime.
func (l *Lock) Acquire(sys kern.Sys) {
	for !l.word.CompareAndSwap(0, 1) {
		sys.Yield()
	}
}

// TryAcquire makes exactly one attempt and reports whether it claimed the
// lock.
func (l *Lock) TryAcquire() bool {
	return l.word.CompareAndSwap(0, 1)
}

// Release stores 0 into the lock word, publishing all writes made inside
// the critical section to the next acquirer.
func (l *Lock) Release() {
	l.word.Store(0)
}
