// Package once implements idempotent single-execution guards.
//
// A Guard is a tri-state word: untried, in progress, complete. The first
// caller to move it untried→in-progress runs the initializer; everyone
// else spins, yielding, until the guard reads complete. There is no
// owner, payload or timeout.
//
// If the initializer panics, the guard is left in progress and every
// other caller spins forever. There is no safe fallback once a waiter is
// already spinning on completion, so this livelock is the documented
// behavior rather than something the guard tries to recover from.
package once

import (
	"sync/atomic"

	"github.com/anyos/threads/internal/thread/stats"
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

// Guard states.
const (
	untried    = 0
	inProgress = 1
	complete   = 2
)

// Guard is a single-use initialization guard. The zero value is ready to
// use and reads as untried.
type Guard struct {
	state atomic.Uint32
}

// Do runs fn exactly once across all callers of this guard. Every call
// returns only after the initializer has completed.
func (g *Guard) Do(sys kern.Sys, fn func()) error {
	if fn == nil {
		return uerror.ErrInvalidArgument
	}

	// Fast path: already initialized.
	if g.state.Load() == complete {
		stats.OnceFastHit()
		return nil
	}

	// Try to become the initializer.
	if g.state.CompareAndSwap(untried, inProgress) {
		fn()
		g.state.Store(complete)
		return nil
	}

	// Another thread is initializing; spin until complete.
	for g.state.Load() != complete {
		sys.Yield()
	}
	return nil
}

// Done reports whether the guard has completed.
func (g *Guard) Done() bool {
	return g.state.Load() == complete
}
