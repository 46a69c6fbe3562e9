package thread

import (
	"github.com/anyos/threads/internal/thread/once"
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

// Once is a one-time initialization guard. The zero value is ready to
// use.
//
// The first caller runs fn; every other concurrent caller spins,
// yielding, until the initializer has completed, and every call returns
// only after completion. If fn panics, the guard is stuck in progress
// and later callers spin forever; initializers must not crash.
type Once struct {
	g once.Guard
}

// Do runs fn exactly once across all callers of this Once.
func (o *Once) Do(fn func()) error {
	if o == nil {
		return uerror.ErrInvalidArgument
	}
	return o.g.Do(kern.Default(), fn)
}

// Done reports whether the initializer has completed.
func (o *Once) Done() bool {
	if o == nil {
		return false
	}
	return o.g.Done()
}
