// Package thread provides POSIX-style threading for anyOS user space:
// create/join/detach, spin-based mutexes and condition variables,
// thread-local storage and one-time initialization.
//
// # Why this exists
//
// The anyOS kernel exposes only primitive thread syscalls: create,
// exit, yield, wait-for-exit, and raw page mapping. There is no futex,
// wait queue or condition primitive, and the thread-creation call passes
// no arguments to the new thread. This package synthesizes the familiar
// semantics entirely in user space from atomics and spin-with-yield
// loops.
//
// # Basic usage
//
//	id, err := thread.Create(func(arg interface{}) interface{} {
//		return arg.(int) * 2
//	}, 21)
//	if err != nil {
//		// handle error
//	}
//	v, _ := thread.Join(id)
//	// v == 42
//
// # Blocking model
//
// Join is the only operation that blocks in the kernel. Every other
// wait (mutex contention, condition wait, once contention) is a
// user-space spin interleaved with scheduler yields: the thread stays
// runnable and gives up the remainder of each quantum. No wait has a
// timeout, and there is no cancellation.
//
// # Limits and documented sharp edges
//
//   - At most 128 threads may be outstanding (created, not yet joined or
//     reclaimed) at once; the 129th Create fails with
//     ErrResourceExhausted.
//   - At most 64 TLS keys may exist at once.
//   - TLS rows are selected by thread ID modulo 128. Two live threads
//     whose identifiers are congruent modulo 128 alias their TLS
//     storage.
//   - Cond.Signal and Cond.Broadcast both wake every current waiter.
//   - Locking a mutex the caller already holds spins forever.
//   - A panicking Once initializer leaves other callers spinning.
//
// # Kernel binding
//
// Hosted, the package runs against a simulated kernel (kern.Sim). A
// port to real anyOS installs its syscall implementation with
// kern.SetDefault before the first call into this package.
package thread
