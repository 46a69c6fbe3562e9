package once

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

// TestGuard_RunsOnce verifies the initializer runs on the first call
// and never again.
func TestGuard_RunsOnce(t *testing.T) {
	sys := kern.NewSim()

	var (
		g    Guard
		runs int
	)
	for i := 0; i < 5; i++ {
		if err := g.Do(sys, func() { runs++ }); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	if runs != 1 {
		t.Errorf("initializer ran %d times, want 1", runs)
	}
	if !g.Done() {
		t.Error("Done() = false after completion")
	}
}

// TestGuard_NilInitializer verifies a nil initializer is rejected.
func TestGuard_NilInitializer(t *testing.T) {
	sys := kern.NewSim()
	var g Guard
	if err := g.Do(sys, nil); err != uerror.ErrInvalidArgument {
		t.Errorf("Do(nil) error = %v, want ErrInvalidArgument", err)
	}
	if g.Done() {
		t.Error("rejected call completed the guard")
	}
}

// TestGuard_ExactlyOnceUnderContention races many callers into one
// guard: the initializer must run exactly once, and every caller must
// observe completion before its Do returns.
func TestGuard_ExactlyOnceUnderContention(t *testing.T) {
	sys := kern.NewSim()

	const callers = 32

	var (
		g    Guard
		runs atomic.Int32
		wg   sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Do(sys, func() {
				// Linger so losers really do wait on completion.
				for i := 0; i < 100; i++ {
					sys.Yield()
				}
				runs.Add(1)
			}); err != nil {
				t.Errorf("Do: %v", err)
				return
			}
			if !g.Done() {
				t.Error("Do returned before completion")
			}
		}()
	}
	wg.Wait()

	if n := runs.Load(); n != 1 {
		t.Errorf("initializer ran %d times, want 1", n)
	}
}

// TestGuard_ObservableFromInitializerResult verifies all callers see
// the initializer's side effects after Do returns.
func TestGuard_ObservableFromInitializerResult(t *testing.T) {
	sys := kern.NewSim()

	const callers = 16

	var (
		g     Guard
		value int
		wg    sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(sys, func() { value = 42 })
			if value != 42 {
				t.Error("caller returned before the initializer's write was visible")
			}
		}()
	}
	wg.Wait()
}
