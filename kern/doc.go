// Package kern defines the kernel syscall boundary the threading runtime
// is built on, and provides a hosted simulation of it.
//
// # The anyOS thread ABI
//
// The kernel exposes only primitive thread operations:
//
//   - create a thread from an entry point and an initial stack pointer
//   - exit the current thread
//   - block until a specific thread has exited
//   - yield the remainder of the current quantum
//   - query the current thread identifier
//   - map / unmap page ranges (used for thread stacks)
//
// There is no futex, wait-queue or condition primitive. Everything above
// this boundary (see the thread package) synthesizes blocking behavior
// from atomics and spin-with-yield loops.
//
// The thread-creation call passes no arguments to the new thread: the
// entry point starts with nothing but the stack the caller set up. That
// single ABI constraint shapes the whole runtime: a new thread must
// discover its own task by querying its identifier and searching shared
// state.
//
// # Implementations
//
// Sim is a hosted implementation backed by goroutines, used for
// development and for the runtime's own test suite. A port to real anyOS
// supplies a Sys that issues the raw syscalls and installs it with
// SetDefault before any runtime object is used.
package kern
