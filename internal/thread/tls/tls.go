// Package tls implements per-key, per-thread value slots with optional
// destructors.
//
// There is no TLS segment on anyOS, so storage is a static 2D table:
// one row per possible registry slot, one column per key. A thread's row
// is selected by ID mod registry.Capacity, not by exact match: two live
// threads whose identifiers are congruent modulo the capacity silently
// alias their storage. This is a known, accepted limitation inherited
// from the table sizing; callers that create threads beyond the
// identifier wrap-around must not rely on TLS isolation.
package tls

import (
	"github.com/anyos/threads/internal/thread/registry"
	"github.com/anyos/threads/internal/thread/spin"
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

// KeysMax is the number of TLS key slots.
const KeysMax = 64

// Key identifies one TLS slot. Values are indices into the key table.
type Key uint32

// Destructor is invoked at thread exit for each key whose stored value is
// non-nil. Called at most once per thread per value.
type Destructor func(value interface{})

// Store holds the key table and the per-thread value rows. All state is
// inline; no allocation after construction.
type Store struct {
	sys  kern.Sys
	lock spin.Lock

	used [KeysMax]bool
	dtor [KeysMax]Destructor

	// values[row][key], row = thread ID mod registry.Capacity.
	values [registry.Capacity][KeysMax]interface{}
}

// NewStore creates an empty TLS store bound to the given kernel.
func NewStore(sys kern.Sys) *Store {
	return &Store{sys: sys}
}

// KeyCreate claims a free key slot, registering an optional destructor.
// Fails with ErrResourceExhausted when all KeysMax slots are in use.
func (s *Store) KeyCreate(destructor Destructor) (Key, error) {
	s.lock.Acquire(s.sys)
	for i := 0; i < KeysMax; i++ {
		if !s.used[i] {
			s.used[i] = true
			s.dtor[i] = destructor
			s.lock.Release()
			return Key(i), nil
		}
	}
	s.lock.Release()
	return 0, uerror.ErrResourceExhausted
}

// KeyDelete frees a key slot, clearing every thread's stored value for it.
// Destructors are NOT run; deletion is an explicit opt-out of cleanup.
func (s *Store) KeyDelete(key Key) error {
	if key >= KeysMax {
		return uerror.ErrInvalidArgument
	}

	s.lock.Acquire(s.sys)
	if !s.used[key] {
		s.lock.Release()
		return uerror.ErrInvalidArgument
	}
	for row := 0; row < registry.Capacity; row++ {
		s.values[row][key] = nil
	}
	s.used[key] = false
	s.dtor[key] = nil
	s.lock.Release()
	return nil
}

// Set stores value in the calling thread's slot for key.
func (s *Store) Set(key Key, value interface{}) error {
	if key >= KeysMax || !s.used[key] {
		return uerror.ErrInvalidArgument
	}
	row := uint32(s.sys.CurrentID()) % registry.Capacity
	s.values[row][key] = value
	return nil
}

// Get returns the calling thread's stored value for key, or nil for an
// invalid or deleted key or an unset slot.
func (s *Store) Get(key Key) interface{} {
	if key >= KeysMax || !s.used[key] {
		return nil
	}
	row := uint32(s.sys.CurrentID()) % registry.Capacity
	return s.values[row][key]
}

// RunDestructors runs the destructor pass for an exiting thread.
//
// One pass only: a destructor that installs fresh values for other keys
// will not have those cleaned up. (POSIX allows multiple iterations;
// this runtime does one.)
//
// Each value is claimed and cleared under the lock, but the destructor
// itself runs outside it, so destructors may call Set, Get and KeyCreate.
func (s *Store) RunDestructors(id kern.TID) {
	row := uint32(id) % registry.Capacity

	for k := 0; k < KeysMax; k++ {
		s.lock.Acquire(s.sys)
		var (
			val interface{}
			d   Destructor
		)
		if s.used[k] && s.dtor[k] != nil && s.values[row][k] != nil {
			val = s.values[row][k]
			d = s.dtor[k]
			s.values[row][k] = nil
		}
		s.lock.Release()

		if d != nil {
			d(val)
		}
	}
}
