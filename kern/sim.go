package kern

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/anyos/threads/pkg/logger"
)

// Sim is a hosted simulation of the anyOS thread syscalls, backed by
// goroutines. It exists so the runtime can be developed and tested without
// a kernel underneath:
//
//   - ThreadCreate spawns a goroutine that registers its identity and then
//     jumps to the entry point, so the entry still starts with no
//     arguments and must self-discover.
//   - ThreadExit uses runtime.Goexit, so exit-from-anywhere works.
//   - MapPages hands out page-aligned regions with real backing memory, so
//     stack-pointer arithmetic done by the lifecycle layer lands in
//     genuinely writable, zeroed bytes.
//   - Yield maps to runtime.Gosched, which is exactly the "scheduling
//     hint, may or may not switch" contract.
//
// The simulation keeps mapped buffers referenced in its region table, so
// an address handed out by MapPages stays valid until UnmapPages.
//
// Thread Safety: all methods are safe for concurrent use.
type Sim struct {
	log *logger.Logger

	// nextTID allocates thread identifiers. Starts at 0 and is
	// pre-incremented, so 0 is never handed out (reserved sentinel).
	nextTID atomic.Uint32

	// regions maps a mapping's base address to its record.
	regionMu sync.Mutex
	regions  map[uintptr]*region

	// threads maps TID → *simThread for ThreadWait/ThreadExit.
	// Key: TID, Value: *simThread.
	threads sync.Map

	// gids maps goroutine ID → TID. Goroutines the runtime did not
	// create (the process main thread, test goroutines) are registered
	// lazily on their first CurrentID call.
	// Key: int64, Value: TID.
	gids sync.Map
}

// region is one MapPages allocation. buf is retained to keep the backing
// memory alive; base is aligned up from &buf[0] to a page boundary.
type region struct {
	buf  []byte
	base uintptr
	size uintptr
}

// simThread is the kernel-side state of one simulated thread.
type simThread struct {
	id   TID
	code int           // exit code, written before done is closed
	done chan struct{} // closed when the thread has exited
}

// NewSim creates a simulated kernel. Syscall tracing is enabled when the
// ANYOS_KERN_TRACE environment variable is non-empty.
func NewSim() *Sim {
	s := &Sim{
		log:     logger.NewLogger("kern"),
		regions: make(map[uintptr]*region),
	}
	if os.Getenv("ANYOS_KERN_TRACE") != "" {
		s.log.SetLevel(logger.TraceLevel)
	}
	return s
}

// MapPages allocates a zeroed, page-aligned region of at least size bytes.
func (s *Sim) MapPages(size uintptr) (uintptr, error) {
	if size == 0 {
		return 0, ErrNoMem
	}
	// Round up to the page granularity, then over-allocate by one page so
	// the base can be aligned up inside the buffer.
	size = (size + PageSize - 1) &^ uintptr(PageSize-1)
	buf := make([]byte, size+PageSize)
	raw := uintptr(unsafe.Pointer(&buf[0]))
	base := (raw + PageSize - 1) &^ uintptr(PageSize-1)

	s.regionMu.Lock()
	s.regions[base] = &region{buf: buf, base: base, size: size}
	s.regionMu.Unlock()

	s.log.Tracef("map_pages size=%d base=%#x", size, base)
	return base, nil
}

// UnmapPages releases a region previously returned by MapPages.
func (s *Sim) UnmapPages(addr, size uintptr) error {
	s.regionMu.Lock()
	r, ok := s.regions[addr]
	if ok {
		delete(s.regions, addr)
	}
	s.regionMu.Unlock()
	if !ok {
		return ErrBadAddress
	}
	s.log.Tracef("unmap_pages base=%#x size=%d", r.base, size)
	return nil
}

// contains reports whether addr falls inside a currently mapped region.
func (s *Sim) contains(addr uintptr) bool {
	s.regionMu.Lock()
	defer s.regionMu.Unlock()
	for _, r := range s.regions {
		if addr >= r.base && addr < r.base+r.size {
			return true
		}
	}
	return false
}

// ThreadCreate starts a simulated thread. The entry point runs on a fresh
// goroutine after the goroutine's identity has been recorded, so the
// entry's own CurrentID call always resolves.
func (s *Sim) ThreadCreate(entry Entry, sp uintptr) (TID, error) {
	if entry == nil {
		return 0, ErrBadAddress
	}
	if !s.contains(sp) {
		return 0, ErrBadAddress
	}

	id := TID(s.nextTID.Add(1))
	t := &simThread{id: id, done: make(chan struct{})}
	s.threads.Store(id, t)

	go func() {
		gid := goroutineID()
		s.gids.Store(gid, id)
		// The done channel must close even if the entry point returns
		// normally or bails out through ThreadExit (runtime.Goexit).
		defer func() {
			s.gids.Delete(gid)
			close(t.done)
		}()
		entry()
	}()

	s.log.Tracef("thread_create tid=%d sp=%#x", id, sp)
	return id, nil
}

// ThreadExit terminates the calling thread. Never returns.
func (s *Sim) ThreadExit(code int) {
	id := s.CurrentID()
	if v, ok := s.threads.Load(id); ok {
		v.(*simThread).code = code
	}
	s.log.Tracef("thread_exit tid=%d code=%d", id, code)
	// Goexit runs the creation wrapper's deferred cleanup, which closes
	// the done channel ThreadWait blocks on.
	runtime.Goexit()
}

// ThreadWait blocks until thread id has exited and returns its exit code.
// The kernel-side record is reaped on return, waitpid-style: a second wait
// for the same identifier reports ErrNoThread.
func (s *Sim) ThreadWait(id TID) (int, error) {
	v, ok := s.threads.Load(id)
	if !ok {
		return 0, ErrNoThread
	}
	t := v.(*simThread)
	<-t.done
	s.threads.Delete(id)
	return t.code, nil
}

// Yield relinquishes the remainder of the current quantum.
func (s *Sim) Yield() {
	runtime.Gosched()
}

// CurrentID returns the calling thread's identifier, assigning one on
// first sight for goroutines the runtime did not create.
func (s *Sim) CurrentID() TID {
	gid := goroutineID()
	if v, ok := s.gids.Load(gid); ok {
		return v.(TID)
	}
	// Lazy registration for goroutines the runtime did not create.
	id := TID(s.nextTID.Add(1))
	actual, _ := s.gids.LoadOrStore(gid, id)
	return actual.(TID)
}
