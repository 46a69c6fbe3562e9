package thread

import "github.com/anyos/threads/internal/thread/uerror"

// The error taxonomy. Returned errors may carry wrapped call-site
// context; match them with errors.Is.
var (
	// ErrInvalidArgument reports a malformed handle, a sub-page stack
	// size, a nil routine, or a bad TLS key.
	ErrInvalidArgument = uerror.ErrInvalidArgument

	// ErrResourceExhausted reports a full thread registry or TLS key
	// table, or a kernel refusal to create a thread.
	ErrResourceExhausted = uerror.ErrResourceExhausted

	// ErrOutOfMemory reports a failed stack mapping.
	ErrOutOfMemory = uerror.ErrOutOfMemory

	// ErrNotFound reports an operation on an unknown thread.
	ErrNotFound = uerror.ErrNotFound

	// ErrInvalidState reports an operation that is illegal in the
	// thread's current state, such as joining a detached thread.
	ErrInvalidState = uerror.ErrInvalidState
)
