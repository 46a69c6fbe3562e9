package usync

import (
	"sync/atomic"

	"github.com/anyos/threads/internal/thread/stats"
	"github.com/anyos/threads/internal/thread/uerror"
)

// Cond is a spin-wait condition variable.
//
// The whole state is one monotonically increasing sequence counter; the
// condition variable is not associated with any particular mutex or
// thread. A waiter snapshots the counter, releases the mutex, and spins
// (yielding) until the counter moves.
//
// Signal and Broadcast are the same operation here: both bump the
// counter once, so every thread currently waiting wakes and re-contends
// for the mutex. POSIX permits "signal wakes at least one waiter", and
// this implementation is deliberately at the coarse end of that
// contract. Do not assume signal wakes exactly one.
//
// The zero value is ready to use.
type Cond struct {
	seq atomic.Uint32
}

// Wait atomically releases mu and blocks until the condition variable is
// signaled, then reacquires mu before returning.
//
// As with any condition variable, callers must re-check their predicate
// in a loop: a wake means the counter moved, not that the predicate
// holds.
func (c *Cond) Wait(mu *Mutex) error {
	if c == nil || mu == nil {
		return uerror.ErrInvalidArgument
	}
	sys := mu.kernel()

	// Snapshot the sequence before releasing the mutex. A signal issued
	// after this point, even before we start spinning, moves the
	// counter past the snapshot, so it cannot be lost.
	seq := c.seq.Load()

	if err := mu.Unlock(); err != nil {
		return err
	}

	for c.seq.Load() == seq {
		sys.Yield()
	}
	stats.CondWakeup()

	// Reacquire before returning, per the usual condition contract.
	return mu.Lock()
}

// Signal wakes every thread currently waiting on the condition variable.
func (c *Cond) Signal() error {
	if c == nil {
		return uerror.ErrInvalidArgument
	}
	c.seq.Add(1)
	return nil
}

// Broadcast wakes every thread currently waiting on the condition
// variable. Identical to Signal.
func (c *Cond) Broadcast() error {
	if c == nil {
		return uerror.ErrInvalidArgument
	}
	c.seq.Add(1)
	return nil
}
