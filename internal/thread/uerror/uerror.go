// Package uerror defines the runtime's error taxonomy.
//
// Every failure the runtime can report maps onto one of five sentinel
// values, so callers can branch with errors.Is regardless of how much
// call-site context was wrapped around the sentinel. The runtime never
// retries on its own; callers decide.
package uerror

import "github.com/pkg/errors"

var (
	// ErrInvalidArgument reports a malformed handle, a stack size below
	// one allocation unit, or a bad TLS key.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted reports a full thread registry or key table,
	// or a kernel refusal to create a thread.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrOutOfMemory reports a failed stack mapping.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrNotFound reports an operation on a thread the registry does not
	// know.
	ErrNotFound = errors.New("thread not found")

	// ErrInvalidState reports an operation that is illegal in the
	// target's current state, such as joining a detached thread.
	ErrInvalidState = errors.New("invalid thread state")
)
