package thread

import (
	"github.com/anyos/threads/internal/thread/lifecycle"
	"github.com/anyos/threads/internal/thread/once"
	"github.com/anyos/threads/internal/thread/registry"
	"github.com/anyos/threads/kern"
)

// ID identifies a thread. 0 is never a valid ID.
type ID = kern.TID

// Routine is a thread entry routine. The value it returns is delivered
// to Join.
type Routine func(arg interface{}) interface{}

// Attr carries optional creation attributes. The zero value means
// default stack size (64 KiB), joinable.
type Attr struct {
	// StackSize in bytes; 0 selects the default. Non-zero values below
	// one page (4096) are rejected with ErrInvalidArgument.
	StackSize uintptr

	// Detached creates the thread already detached.
	Detached bool
}

// Package-level manager, bound to the process-default kernel on first
// use. Initialization goes through the runtime's own once guard, the
// same primitive handed to users.
var (
	mgrGuard once.Guard
	mgr      *lifecycle.Manager
)

func manager() *lifecycle.Manager {
	if !mgrGuard.Done() {
		sys := kern.Default()
		_ = mgrGuard.Do(sys, func() {
			mgr = lifecycle.New(sys)
		})
	}
	return mgr
}

// Create starts a new thread executing routine(arg) with default
// attributes and returns its ID.
func Create(routine Routine, arg interface{}) (ID, error) {
	return CreateAttr(routine, arg, Attr{})
}

// CreateAttr starts a new thread with explicit attributes.
//
// Errors:
//   - ErrInvalidArgument: nil routine or sub-page stack size
//   - ErrOutOfMemory: stack mapping refused by the kernel
//   - ErrResourceExhausted: registry full (128 outstanding threads) or
//     kernel thread creation refused
func CreateAttr(routine Routine, arg interface{}, attr Attr) (ID, error) {
	return manager().Create(registry.Routine(routine), arg, lifecycle.Attr{
		StackSize: attr.StackSize,
		Detached:  attr.Detached,
	})
}

// Join blocks until thread id exits and returns its routine's return
// value. Joining a detached thread fails with ErrInvalidState; an
// unknown id fails with ErrNotFound.
func Join(id ID) (interface{}, error) {
	return manager().Join(id)
}

// Detach marks a thread as detached so its record and stack are
// reclaimed as soon as it finishes (immediately, if it already has).
// Fails with ErrNotFound for an unknown id.
func Detach(id ID) error {
	return manager().Detach(id)
}

// Exit terminates the calling thread with the given return value, as if
// its routine had returned it. TLS destructors run first. Never returns.
func Exit(ret interface{}) {
	manager().Exit(ret)
}

// Self returns the calling thread's ID.
func Self() ID {
	return manager().Self()
}

// Equal reports whether two IDs name the same thread.
func Equal(a, b ID) bool {
	return lifecycle.Equal(a, b)
}
