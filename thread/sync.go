package thread

import (
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/internal/thread/usync"
)

// Mutex is a spin-based mutual-exclusion lock. The zero value is an
// unlocked mutex.
//
// Contended Lock calls spin with periodic scheduler yields; there is no
// wait queue, no fairness, no recursion and no deadlock detection.
type Mutex struct {
	m usync.Mutex
}

// Lock acquires the mutex, spinning until it is free.
func (m *Mutex) Lock() error {
	if m == nil {
		return uerror.ErrInvalidArgument
	}
	return m.m.Lock()
}

// TryLock makes exactly one acquisition attempt and reports whether it
// succeeded.
func (m *Mutex) TryLock() bool {
	if m == nil {
		return false
	}
	return m.m.TryLock()
}

// Unlock releases the mutex. Unlocking a mutex the caller does not hold
// is not detected.
func (m *Mutex) Unlock() error {
	if m == nil {
		return uerror.ErrInvalidArgument
	}
	return m.m.Unlock()
}

// Cond is a spin-wait condition variable. The zero value is ready to
// use.
//
// Signal and Broadcast are the same operation: both wake every thread
// currently in Wait. Do not assume signal wakes exactly one waiter.
type Cond struct {
	c usync.Cond
}

// Wait atomically releases mu, blocks until the condition variable is
// signaled, and reacquires mu before returning. Callers must re-check
// their predicate in a loop.
func (c *Cond) Wait(mu *Mutex) error {
	if c == nil || mu == nil {
		return uerror.ErrInvalidArgument
	}
	return c.c.Wait(&mu.m)
}

// Signal wakes every thread currently waiting on c.
func (c *Cond) Signal() error {
	if c == nil {
		return uerror.ErrInvalidArgument
	}
	return c.c.Signal()
}

// Broadcast wakes every thread currently waiting on c.
func (c *Cond) Broadcast() error {
	if c == nil {
		return uerror.ErrInvalidArgument
	}
	return c.c.Broadcast()
}
