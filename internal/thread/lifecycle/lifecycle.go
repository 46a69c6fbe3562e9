// Package lifecycle implements thread creation, join, detach and exit on
// top of the registry and the raw kernel thread syscalls.
//
// # The creation handshake
//
// The kernel's thread-creation call takes an entry point and an initial
// stack pointer and passes no arguments, so a new thread starts knowing
// nothing. The handshake that gives it its task:
//
//  1. The creator maps a stack, claims a registry slot under the
//     sentinel ID 0, and fills in routine, argument, stack region and
//     flags, all before the kernel thread exists.
//  2. The creator issues ThreadCreate. From this instant the trampoline
//     may be running.
//  3. The creator publishes the kernel-assigned identifier into the
//     slot with an atomic store. This publication is the correctness
//     pivot of the whole runtime: it is what makes the fields written in
//     step 1 visible to the new thread.
//  4. The trampoline queries its own identifier and searches the
//     registry for it, retrying with a yield until the publication from
//     step 3 lands. Until then no slot can match, because the slot still
//     carries ID 0 and the kernel never assigns 0.
//
// Passing the record through the new thread's stack instead was
// considered and rejected: register and stack state at function entry is
// not reliable across optimization levels, and the entry point receives
// no arguments. The spin lookup costs a handful of yields at worst and
// has no ABI assumptions.
package lifecycle

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/anyos/threads/internal/thread/registry"
	"github.com/anyos/threads/internal/thread/stats"
	"github.com/anyos/threads/internal/thread/tls"
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

const (
	// DefaultStackSize is used when the caller does not specify one.
	DefaultStackSize = 64 * 1024

	// MinStackSize is one allocation unit; anything smaller is rejected.
	MinStackSize = kern.PageSize

	wordSize = unsafe.Sizeof(uintptr(0))
)

// Attr carries optional thread creation attributes. The zero value means
// default stack size, joinable.
type Attr struct {
	// StackSize is the requested stack size in bytes. 0 selects
	// DefaultStackSize; a non-zero value below MinStackSize is invalid.
	StackSize uintptr

	// Detached creates the thread already detached: it is never joined
	// and reclaims its own record when it finishes.
	Detached bool
}

// Manager owns the registry, the TLS store and the trampoline. One
// Manager per kernel instance.
type Manager struct {
	sys kern.Sys
	reg *registry.Table
	tls *tls.Store
}

// New creates a lifecycle manager bound to the given kernel.
func New(sys kern.Sys) *Manager {
	return &Manager{
		sys: sys,
		reg: registry.NewTable(sys),
		tls: tls.NewStore(sys),
	}
}

// TLS returns the manager's thread-local storage. Destructors registered
// there run on the exit path of threads this manager created.
func (m *Manager) TLS() *tls.Store {
	return m.tls
}

// Registry exposes the thread table, for tests and diagnostics.
func (m *Manager) Registry() *registry.Table {
	return m.reg
}

// Create starts a new thread running routine(arg) and returns its
// identifier.
//
// Errors:
//   - ErrInvalidArgument: nil routine, or a stack size below one page
//   - ErrOutOfMemory: the kernel refused the stack mapping
//   - ErrResourceExhausted: registry full, or thread creation refused
func (m *Manager) Create(routine registry.Routine, arg interface{}, attr Attr) (kern.TID, error) {
	if routine == nil {
		return 0, errors.Wrap(uerror.ErrInvalidArgument, "nil routine")
	}

	// Resolve the stack size: explicit value rounded up to the page
	// granularity, default when unspecified.
	size := attr.StackSize
	if size == 0 {
		size = DefaultStackSize
	} else if size < MinStackSize {
		return 0, errors.Wrapf(uerror.ErrInvalidArgument, "stack size %d below minimum %d", size, MinStackSize)
	}
	size = (size + kern.PageSize - 1) &^ uintptr(kern.PageSize-1)

	base, err := m.sys.MapPages(size)
	if err != nil {
		return 0, errors.Wrapf(uerror.ErrOutOfMemory, "mapping %d-byte stack: %v", size, err)
	}

	// Initial stack pointer: top of the region minus one machine word,
	// with that word zeroed: a null "caller" address that keeps the
	// stack aligned the way a freshly entered function expects. The
	// trampoline never returns through it.
	top := base + size
	sp := top - wordSize
	*(*uintptr)(unsafe.Pointer(sp)) = 0

	// Claim a registry slot under the sentinel ID and stage everything
	// the new thread will need before it can possibly run.
	rec := m.reg.FindOrAlloc(0, true)
	if rec == nil {
		_ = m.sys.UnmapPages(base, size)
		return 0, errors.Wrap(uerror.ErrResourceExhausted, "thread registry full")
	}
	rec.Routine = routine
	rec.Arg = arg
	rec.StackBase = base
	rec.StackSize = size
	if attr.Detached {
		rec.Detached.Store(true)
	}

	id, err := m.sys.ThreadCreate(m.trampoline, sp)
	if err != nil {
		// Release returns the stack region as well.
		m.reg.Release(rec)
		return 0, errors.Wrapf(uerror.ErrResourceExhausted, "thread creation refused: %v", err)
	}

	// Publish the real identifier. The trampoline's lookup loop cannot
	// succeed before this store; once it does, every field staged above
	// is visible to the new thread.
	rec.ID.Store(uint32(id))

	stats.ThreadCreated()
	return id, nil
}

// trampoline is the entry point handed to the kernel. It runs with no
// arguments and must self-discover its record.
func (m *Manager) trampoline() {
	self := m.sys.CurrentID()

	// The creator may not have published our identifier yet; retry the
	// lookup until it lands.
	var rec *registry.Record
	for {
		rec = m.reg.FindOrAlloc(self, false)
		if rec != nil {
			break
		}
		stats.LookupRetry()
		m.sys.Yield()
	}

	var ret interface{}
	if rec.Routine != nil {
		ret = rec.Routine(rec.Arg)
	}

	m.finish(self, rec, ret)
}

// finish is the shared tail of the trampoline and Exit: publish the
// return value, mark the thread finished, reclaim immediately when
// detached, run TLS destructors, and exit through the kernel. Never
// returns.
func (m *Manager) finish(self kern.TID, rec *registry.Record, ret interface{}) {
	if rec != nil {
		rec.Ret = ret
		rec.Finished.Store(true)

		// A detached thread has no joiner coming to read the result;
		// it reclaims its own slot and stack now.
		if rec.Detached.Load() {
			m.reg.Release(rec)
		}
	}

	m.tls.RunDestructors(self)

	stats.ThreadExited()
	m.sys.ThreadExit(0)
}

// Join blocks until thread id has exited and returns its routine's
// return value, releasing the record.
//
// Joining a detached thread fails with ErrInvalidState. Joining an
// identifier unknown to both the registry and the kernel fails with
// ErrNotFound. Joining the same thread from two threads at once is
// undefined, as in POSIX.
//
// A concurrent detach issued between the kernel wait and the value read
// may already have reclaimed the record; the caller then gets nil, not
// an error.
func (m *Manager) Join(id kern.TID) (interface{}, error) {
	rec := m.reg.FindOrAlloc(id, false)

	if rec != nil && rec.Detached.Load() {
		return nil, errors.Wrapf(uerror.ErrInvalidState, "thread %d is detached", id)
	}

	// The one wait the kernel provides natively; no spinning here.
	_, waitErr := m.sys.ThreadWait(id)

	if rec == nil {
		if waitErr != nil {
			return nil, errors.Wrapf(uerror.ErrNotFound, "thread %d", id)
		}
		return nil, nil
	}

	ret := rec.Ret
	m.reg.Release(rec)
	stats.ThreadJoined()
	return ret, nil
}

// Detach marks thread id as detached. If the thread has already finished,
// its record and stack are released immediately; otherwise the thread
// reclaims itself when it finishes.
func (m *Manager) Detach(id kern.TID) error {
	rec := m.reg.FindOrAlloc(id, false)
	if rec == nil {
		return errors.Wrapf(uerror.ErrNotFound, "thread %d", id)
	}

	rec.Detached.Store(true)

	// Covers the race where the thread finished before the detach
	// request: nobody else will reclaim it.
	if rec.Finished.Load() {
		m.reg.Release(rec)
	}

	stats.ThreadDetached()
	return nil
}

// Exit terminates the calling thread with the given return value,
// following the same store/flag/cleanup/destructor sequence as the
// trampoline tail. Never returns.
func (m *Manager) Exit(ret interface{}) {
	self := m.sys.CurrentID()
	rec := m.reg.FindOrAlloc(self, false)
	m.finish(self, rec, ret)
}

// Self returns the calling thread's identifier.
func (m *Manager) Self() kern.TID {
	return m.sys.CurrentID()
}

// Equal reports whether two identifiers name the same thread.
func Equal(a, b kern.TID) bool {
	return a == b
}
