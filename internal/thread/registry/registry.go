// Package registry implements the fixed-capacity table mapping kernel
// thread identifiers to their bookkeeping records.
//
// The table is an open-addressing hash set keyed by thread ID, with
// capacity equal to the maximum number of simultaneously outstanding
// (not-yet-joined) threads. It never allocates: the allocator's own
// thread-safety may depend on this runtime, so the runtime cannot depend
// on the allocator. Exceeding the capacity is a resource-exhaustion
// error, not undefined behavior.
//
// # Identity publication
//
// A record is allocated by the creating thread under the sentinel ID 0,
// before the kernel thread exists. The real identifier is published into
// the record only after kernel thread creation succeeds. The new thread
// finds its own record by searching for its identifier; until the
// publication lands, no slot can match, so the search is retried by the
// caller (see the lifecycle package). The ID field is therefore an
// atomic: it is the one record word read outside the table lock.
package registry

import (
	"sync/atomic"

	"github.com/anyos/threads/internal/thread/spin"
	"github.com/anyos/threads/kern"
)

// Capacity is the maximum number of simultaneously outstanding threads.
// Also the row count of the TLS value table, which is indexed by
// ID mod Capacity.
const Capacity = 128

// Routine is a user thread entry routine.
type Routine func(arg interface{}) interface{}

// Record is the bookkeeping for one live-or-not-yet-reclaimed thread.
//
// Plain fields are written by the creator before the identifier is
// published and read by the thread itself after it has found the record,
// so the ID publication orders them. Finished and Detached are one-shot
// flags (false→true, reset only on slot reuse) communicated between the
// exiting thread and a joiner/detacher, hence atomic.
type Record struct {
	// active marks the slot occupied. Guarded by the table lock.
	active bool

	// ID is the kernel thread identifier; 0 means not yet assigned.
	// Published with an atomic store after creation succeeds.
	ID atomic.Uint32

	// Routine and Arg are written once by the creator and read exactly
	// once by the new thread.
	Routine Routine
	Arg     interface{}

	// Ret is written once by the exiting thread (before Finished is
	// set) and read at most once by a joiner.
	Ret interface{}

	// Finished is set by the exiting thread after Ret is in place.
	Finished atomic.Bool

	// Detached is set by Detach or at creation for detached threads.
	Detached atomic.Bool

	// StackBase and StackSize describe the mapped stack region. Owned
	// by this record until the thread is joined, or finishes while
	// detached; Release returns the region to the kernel.
	StackBase uintptr
	StackSize uintptr
}

// Table is the registry. All slot state lives inline, so nothing is
// allocated after construction.
type Table struct {
	sys   kern.Sys
	lock  spin.Lock
	slots [Capacity]Record
}

// NewTable creates an empty registry bound to the given kernel.
func NewTable(sys kern.Sys) *Table {
	return &Table{sys: sys}
}

// FindOrAlloc looks up the record for id, optionally claiming a free slot
// for it.
//
// The probe starts at id mod Capacity. The natural slot is checked first;
// otherwise every slot is scanned (wrapping) for either an active match
// or, only when allowAlloc is set, a free slot, which is claimed and
// zero-initialized under id. Returns nil if the scan finds neither
// (unknown thread, or table full).
//
// Thread Safety: the scan and any claim happen under the table spinlock.
// Callers must not hold the lock.
func (t *Table) FindOrAlloc(id kern.TID, allowAlloc bool) *Record {
	idx := uint32(id) % Capacity
	t.lock.Acquire(t.sys)

	// The sentinel never matches: an allocation under ID 0 must always
	// claim a fresh slot, or two concurrent creators would hand out the
	// same in-flight record.
	match := id != 0

	// Fast path: the natural slot matches.
	if match && t.slots[idx].active && t.slots[idx].ID.Load() == uint32(id) {
		t.lock.Release()
		return &t.slots[idx]
	}

	// Linear probe for a match or a free slot (if allocating).
	for i := uint32(0); i < Capacity; i++ {
		slot := (idx + i) % Capacity
		r := &t.slots[slot]
		if match && r.active && r.ID.Load() == uint32(id) {
			t.lock.Release()
			return r
		}
		if allowAlloc && !r.active {
			r.active = true
			r.ID.Store(uint32(id))
			r.Routine = nil
			r.Arg = nil
			r.Ret = nil
			r.Finished.Store(false)
			r.Detached.Store(false)
			r.StackBase = 0
			r.StackSize = 0
			t.lock.Release()
			return r
		}
	}

	t.lock.Release()
	return nil
}

// Release returns a record to the free pool, unmapping its stack region
// first.
//
// The unmap must complete before active is cleared: once the slot reads
// as free, a concurrent Create may claim it and map a new stack, and the
// old region handle must be gone by then.
func (t *Table) Release(r *Record) {
	if r == nil {
		return
	}

	if r.StackBase != 0 {
		// Unmap errors are not actionable here; the slot is being
		// retired either way.
		_ = t.sys.UnmapPages(r.StackBase, r.StackSize)
	}

	t.lock.Acquire(t.sys)
	r.active = false
	r.ID.Store(0)
	r.Routine = nil
	r.Arg = nil
	r.Ret = nil
	r.Finished.Store(false)
	r.Detached.Store(false)
	r.StackBase = 0
	r.StackSize = 0
	t.lock.Release()
}
