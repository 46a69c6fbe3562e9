package thread

import (
	"github.com/anyos/threads/internal/thread/tls"
)

// Key identifies one thread-local storage slot. At most 64 keys may
// exist at once.
type Key uint32

// Destructor is called at thread exit with the exiting thread's stored
// value, for every key whose value is non-nil. One pass only: values a
// destructor installs for other keys are not cleaned up.
type Destructor func(value interface{})

// KeyCreate claims a TLS key, optionally registering a destructor.
// Fails with ErrResourceExhausted when the key table is full.
func KeyCreate(destructor Destructor) (Key, error) {
	k, err := manager().TLS().KeyCreate(tls.Destructor(destructor))
	return Key(k), err
}

// KeyDelete frees a key and clears every thread's value for it.
// Destructors are not run; deletion opts out of cleanup.
func KeyDelete(key Key) error {
	return manager().TLS().KeyDelete(tls.Key(key))
}

// SetSpecific stores value in the calling thread's slot for key.
//
// Storage rows are selected by thread ID modulo 128, so two live
// threads with congruent identifiers alias each other's values.
func SetSpecific(key Key, value interface{}) error {
	return manager().TLS().Set(tls.Key(key), value)
}

// GetSpecific returns the calling thread's value for key, or nil for an
// invalid, deleted or unset key.
func GetSpecific(key Key) interface{} {
	return manager().TLS().Get(tls.Key(key))
}
