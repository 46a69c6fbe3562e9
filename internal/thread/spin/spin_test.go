package spin

import (
	"sync"
	"testing"

	"github.com/anyos/threads/kern"
)

// TestLock_MutualExclusion verifies no two holders overlap: concurrent
// unprotected increments under the lock must not lose updates.
func TestLock_MutualExclusion(t *testing.T) {
	sys := kern.NewSim()

	const (
		workers    = 8
		iterations = 2000
	)

	var (
		l       Lock
		counter int
		wg      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < iterations; n++ {
				l.Acquire(sys)
				counter++
				l.Release()
			}
		}()
	}
	wg.Wait()

	if want := workers * iterations; counter != want {
		t.Errorf("counter = %d, want %d (lost updates)", counter, want)
	}
}

// TestLock_TryAcquire verifies TryAcquire makes exactly one attempt.
func TestLock_TryAcquire(t *testing.T) {
	var l Lock

	if !l.TryAcquire() {
		t.Fatal("TryAcquire on free lock failed")
	}
	if l.TryAcquire() {
		t.Fatal("TryAcquire on held lock succeeded")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("TryAcquire after release failed")
	}
}
