package lifecycle

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/anyos/threads/internal/thread/registry"
	"github.com/anyos/threads/internal/thread/uerror"
	"github.com/anyos/threads/kern"
)

func newTestManager() *Manager {
	return New(kern.NewSim())
}

// gate lets a test hold threads in their routine until told to finish.
type gate struct {
	open atomic.Bool
}

func (g *gate) wait() {
	for !g.open.Load() {
		runtime.Gosched()
	}
}

// TestCreateJoin_RoundTrip verifies join returns the routine's value.
func TestCreateJoin_RoundTrip(t *testing.T) {
	m := newTestManager()

	id, err := m.Create(func(arg interface{}) interface{} {
		return arg.(int) * 2
	}, 21, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatal("Create returned the reserved identifier 0")
	}

	v, err := m.Join(id)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if v != 42 {
		t.Errorf("Join returned %v, want 42", v)
	}
}

// TestCreate_InvalidArguments covers the rejection paths.
func TestCreate_InvalidArguments(t *testing.T) {
	m := newTestManager()

	tests := []struct {
		name    string
		routine registry.Routine
		attr    Attr
	}{
		{"nil routine", nil, Attr{}},
		{"sub-page stack", func(interface{}) interface{} { return nil }, Attr{StackSize: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(tt.routine, nil, tt.attr)
			if !errors.Is(err, uerror.ErrInvalidArgument) {
				t.Errorf("Create error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

// TestCreate_ExplicitStackSize verifies a legal explicit size works and
// is rounded up to the page granularity.
func TestCreate_ExplicitStackSize(t *testing.T) {
	m := newTestManager()

	id, err := m.Create(func(interface{}) interface{} { return "ok" },
		nil, Attr{StackSize: kern.PageSize + 1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v, err := m.Join(id); err != nil || v != "ok" {
		t.Fatalf("Join = (%v, %v), want (ok, nil)", v, err)
	}
}

// TestJoin_Unknown verifies joining a never-created identifier fails.
func TestJoin_Unknown(t *testing.T) {
	m := newTestManager()
	if _, err := m.Join(12345); !errors.Is(err, uerror.ErrNotFound) {
		t.Errorf("Join(unknown) error = %v, want ErrNotFound", err)
	}
}

// TestJoin_Detached verifies a detached thread cannot be joined.
func TestJoin_Detached(t *testing.T) {
	m := newTestManager()

	var g gate
	id, err := m.Create(func(interface{}) interface{} {
		g.wait()
		return nil
	}, nil, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Detach(id); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	if _, err := m.Join(id); !errors.Is(err, uerror.ErrInvalidState) {
		t.Errorf("Join(detached) error = %v, want ErrInvalidState", err)
	}

	g.open.Store(true)
	waitReclaimed(t, m, id)
}

// TestDetach_Unknown verifies detaching a never-created identifier
// fails.
func TestDetach_Unknown(t *testing.T) {
	m := newTestManager()
	if err := m.Detach(12345); !errors.Is(err, uerror.ErrNotFound) {
		t.Errorf("Detach(unknown) error = %v, want ErrNotFound", err)
	}
}

// waitReclaimed polls until the registry record for id is gone.
func waitReclaimed(t *testing.T, m *Manager, id kern.TID) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for m.Registry().FindOrAlloc(id, false) != nil {
		if time.Now().After(deadline) {
			t.Fatalf("record for thread %d never reclaimed", id)
		}
		runtime.Gosched()
	}
}

// TestDetach_BeforeFinish verifies detaching a running thread does not
// release its record while it runs, and the thread reclaims itself when
// it finishes.
func TestDetach_BeforeFinish(t *testing.T) {
	m := newTestManager()

	var g gate
	id, err := m.Create(func(interface{}) interface{} {
		g.wait()
		return nil
	}, nil, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.Detach(id); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	// Still running: the record must survive the detach.
	if m.Registry().FindOrAlloc(id, false) == nil {
		t.Fatal("record released while the thread was still running")
	}

	g.open.Store(true)
	waitReclaimed(t, m, id)
}

// TestDetach_AfterFinish verifies detaching an already-finished thread
// releases it promptly.
func TestDetach_AfterFinish(t *testing.T) {
	m := newTestManager()

	id, err := m.Create(func(interface{}) interface{} { return nil }, nil, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Wait for the thread to finish without joining it.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := m.Registry().FindOrAlloc(id, false)
		if rec != nil && rec.Finished.Load() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("thread never finished")
		}
		runtime.Gosched()
	}

	if err := m.Detach(id); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if m.Registry().FindOrAlloc(id, false) != nil {
		t.Error("record not released by detach of a finished thread")
	}
}

// TestCreateDetached_ReclaimsCapacity verifies detached threads return
// their registry slots: after a full wave finishes, a second full wave
// can be created.
func TestCreateDetached_ReclaimsCapacity(t *testing.T) {
	m := newTestManager()

	for wave := 0; wave < 2; wave++ {
		ids := make([]kern.TID, 0, registry.Capacity)
		for i := 0; i < registry.Capacity; i++ {
			id, err := m.Create(func(interface{}) interface{} { return nil },
				nil, Attr{Detached: true})
			if err != nil {
				t.Fatalf("wave %d: Create %d: %v", wave, i, err)
			}
			ids = append(ids, id)
		}
		for _, id := range ids {
			waitReclaimed(t, m, id)
		}
	}
}

// TestCreate_RegistryExhaustion verifies the Capacity+1th outstanding
// thread is refused and existing threads are unharmed.
func TestCreate_RegistryExhaustion(t *testing.T) {
	m := newTestManager()

	var g gate
	blocker := func(interface{}) interface{} {
		g.wait()
		return "done"
	}

	ids := make([]kern.TID, 0, registry.Capacity)
	for i := 0; i < registry.Capacity; i++ {
		id, err := m.Create(blocker, nil, Attr{})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	if _, err := m.Create(blocker, nil, Attr{}); !errors.Is(err, uerror.ErrResourceExhausted) {
		t.Errorf("Create beyond capacity error = %v, want ErrResourceExhausted", err)
	}

	g.open.Store(true)
	for _, id := range ids {
		if v, err := m.Join(id); err != nil || v != "done" {
			t.Fatalf("Join(%d) = (%v, %v), want (done, nil)", id, v, err)
		}
	}
}

// TestExit_DeliversValue verifies an early Exit behaves like a return:
// the joiner sees the exit value, not the routine's.
func TestExit_DeliversValue(t *testing.T) {
	m := newTestManager()

	id, err := m.Create(func(interface{}) interface{} {
		m.Exit("early")
		return "unreachable"
	}, nil, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v, err := m.Join(id)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if v != "early" {
		t.Errorf("Join returned %v, want early", v)
	}
}

// TestSelfEqual verifies identifier queries from inside and outside a
// thread agree.
func TestSelfEqual(t *testing.T) {
	m := newTestManager()

	id, err := m.Create(func(interface{}) interface{} {
		return m.Self()
	}, nil, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v, err := m.Join(id)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	inner, ok := v.(kern.TID)
	if !ok {
		t.Fatalf("routine returned %T, want kern.TID", v)
	}
	if !Equal(inner, id) {
		t.Errorf("Self() inside thread = %d, creator saw %d", inner, id)
	}
	if Equal(inner, m.Self()) {
		t.Error("child and test thread compare equal")
	}
}

// TestExit_RunsTLSDestructors verifies the exit path runs destructors
// for values the exiting thread set.
func TestExit_RunsTLSDestructors(t *testing.T) {
	m := newTestManager()

	var destroyed atomic.Value
	key, err := m.TLS().KeyCreate(func(v interface{}) {
		destroyed.Store(v)
	})
	if err != nil {
		t.Fatalf("KeyCreate: %v", err)
	}

	id, err := m.Create(func(interface{}) interface{} {
		if err := m.TLS().Set(key, "cleanup me"); err != nil {
			return err
		}
		return nil
	}, nil, Attr{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v, err := m.Join(id); err != nil || v != nil {
		t.Fatalf("Join = (%v, %v)", v, err)
	}

	if got := destroyed.Load(); got != "cleanup me" {
		t.Errorf("destructor saw %v, want \"cleanup me\"", got)
	}
}

// TestCreate_ConcurrentCreators verifies racing creators each get their
// own thread and all values come back intact.
func TestCreate_ConcurrentCreators(t *testing.T) {
	m := newTestManager()

	const creators = 16

	results := make(chan error, creators)
	for i := 0; i < creators; i++ {
		go func(n int) {
			id, err := m.Create(func(arg interface{}) interface{} {
				return arg.(int) * 10
			}, n, Attr{})
			if err != nil {
				results <- err
				return
			}
			v, err := m.Join(id)
			if err != nil {
				results <- err
				return
			}
			if v != n*10 {
				results <- errors.Errorf("creator %d joined %v, want %d", n, v, n*10)
				return
			}
			results <- nil
		}(i)
	}

	for i := 0; i < creators; i++ {
		if err := <-results; err != nil {
			t.Error(err)
		}
	}
}
