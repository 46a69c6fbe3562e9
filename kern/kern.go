package kern

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// TID is a kernel thread identifier.
//
// 0 is reserved as a sentinel meaning "not yet assigned" and is never
// handed out by the kernel. The runtime relies on this: a registry slot
// whose TID is still 0 can never match a live thread.
type TID uint32

// PageSize is the kernel allocation granularity. Stack sizes are rounded
// up to a multiple of this, and MapPages never returns less than one page.
const PageSize = 4096

// Kernel-level errors. The lifecycle layer maps these onto the public
// error taxonomy; they are exported so a port implementation can return
// the same values.
var (
	// ErrNoMem is returned by MapPages when the kernel refuses the
	// allocation.
	ErrNoMem = errors.New("kern: out of memory")

	// ErrBadAddress is returned when an address does not fall inside a
	// mapped region (bad initial SP, unmap of an unknown base).
	ErrBadAddress = errors.New("kern: bad address")

	// ErrNoThread is returned by ThreadWait for an identifier the kernel
	// has never heard of.
	ErrNoThread = errors.New("kern: no such thread")
)

// Entry is a thread entry point. The kernel invokes it with no arguments;
// any state the new thread needs must be reachable from shared memory.
type Entry func()

// Sys is the syscall surface the threading runtime depends on.
//
// All calls are synchronous. ThreadWait is the only one that blocks in
// the kernel; everything else returns immediately (Yield is a scheduling
// hint and may or may not context-switch).
type Sys interface {
	// MapPages allocates a zero-initialized region of at least size
	// bytes, page aligned. Returns the base address.
	MapPages(size uintptr) (uintptr, error)

	// UnmapPages releases a region previously returned by MapPages.
	// addr must be the exact base address of the mapping.
	UnmapPages(addr, size uintptr) error

	// ThreadCreate starts a new preemptible thread executing entry with
	// the given initial stack pointer. The new thread receives no
	// arguments. sp must point into a mapped region. Returns the
	// kernel-assigned identifier; the new thread may already be running
	// by the time ThreadCreate returns.
	ThreadCreate(entry Entry, sp uintptr) (TID, error)

	// ThreadExit terminates the calling thread with the given exit code.
	// Never returns.
	ThreadExit(code int)

	// ThreadWait blocks until thread id has exited and returns its exit
	// code. This is the one genuinely blocking wait the kernel provides.
	ThreadWait(id TID) (int, error)

	// Yield relinquishes the remainder of the current quantum.
	Yield()

	// CurrentID returns the identifier of the calling thread.
	CurrentID() TID
}

// defaultSys holds the process-wide Sys used by runtime objects that were
// not bound to an explicit kernel. Stored as an atomic pointer so SetDefault
// is safe even if some thread races it with first use.
var defaultSys atomic.Pointer[sysBox]

type sysBox struct{ sys Sys }

// Default returns the process-wide kernel interface, creating the hosted
// simulation on first use.
func Default() Sys {
	if b := defaultSys.Load(); b != nil {
		return b.sys
	}
	// First use: install a simulation. CompareAndSwap keeps exactly one
	// winner if several threads initialize concurrently.
	b := &sysBox{sys: NewSim()}
	if defaultSys.CompareAndSwap(nil, b) {
		return b.sys
	}
	return defaultSys.Load().sys
}

// SetDefault installs sys as the process-wide kernel interface. A port to
// real anyOS calls this at startup, before any thread, mutex or TLS object
// is used.
func SetDefault(sys Sys) {
	defaultSys.Store(&sysBox{sys: sys})
}
