package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/anyos/threads/pkg/logger"
	"github.com/anyos/threads/thread"
)

var log = logger.NewLogger("stress")

// runAll executes every scenario in order and prints a colored summary.
// Returns the number of failed scenarios.
func runAll(cfg *Config) int {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	failed := 0
	for _, s := range cfg.Scenarios {
		start := time.Now()
		err := runScenario(s)
		elapsed := time.Since(start).Round(time.Millisecond)

		if err != nil {
			failed++
			fmt.Printf("%s  %-12s %-10s %v  (%s)\n", fail("FAIL"), s.Name, s.Kind, elapsed, err)
		} else {
			fmt.Printf("%s  %-12s %-10s %v\n", pass("ok  "), s.Name, s.Kind, elapsed)
		}
	}

	st := thread.GetStats()
	fmt.Printf("\nthreads created=%d joined=%d detached=%d exited=%d\n",
		st.ThreadsCreated, st.ThreadsJoined, st.ThreadsDetached, st.ThreadsExited)
	fmt.Printf("lookup retries=%d lock yields=%d cond wakeups=%d\n",
		st.LookupRetries, st.LockYields, st.CondWakeups)

	return failed
}

func runScenario(s Scenario) error {
	log.Debugf("scenario %q kind=%s threads=%d iterations=%d", s.Name, s.Kind, s.Threads, s.Iterations)
	switch s.Kind {
	case kindSpawnJoin:
		return stressSpawnJoin(s)
	case kindMutex:
		return stressMutex(s)
	case kindCond:
		return stressCond(s)
	case kindOnce:
		return stressOnce(s)
	case kindTLS:
		return stressTLS(s)
	}
	return errors.Errorf("unknown kind %q", s.Kind)
}

// stressSpawnJoin churns create/join waves: each iteration spawns
// s.Threads threads that each return a token, and joins them all back.
func stressSpawnJoin(s Scenario) error {
	attr := thread.Attr{StackSize: s.StackSize}
	for it := 0; it < s.Iterations; it++ {
		ids := make([]thread.ID, 0, s.Threads)
		for i := 0; i < s.Threads; i++ {
			id, err := thread.CreateAttr(func(arg interface{}) interface{} {
				return arg.(int) + 1
			}, i, attr)
			if err != nil {
				return errors.Wrapf(err, "wave %d, thread %d", it, i)
			}
			ids = append(ids, id)
		}
		for i, id := range ids {
			v, err := thread.Join(id)
			if err != nil {
				return errors.Wrapf(err, "joining thread %d", i)
			}
			if v != i+1 {
				return errors.Errorf("thread %d returned %v, want %d", i, v, i+1)
			}
		}
	}
	return nil
}

// stressMutex hammers one mutex from s.Threads threads, each performing
// s.Iterations increments of a shared counter, and checks the total.
func stressMutex(s Scenario) error {
	var (
		mu      thread.Mutex
		counter int
	)
	ids := make([]thread.ID, 0, s.Threads)
	for i := 0; i < s.Threads; i++ {
		id, err := thread.Create(func(interface{}) interface{} {
			for n := 0; n < s.Iterations; n++ {
				if err := mu.Lock(); err != nil {
					return err
				}
				counter++
				if err := mu.Unlock(); err != nil {
					return err
				}
			}
			return nil
		}, nil)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		if v, err := thread.Join(id); err != nil {
			return err
		} else if v != nil {
			return v.(error)
		}
	}
	want := s.Threads * s.Iterations
	if counter != want {
		return errors.Errorf("counter=%d, want %d (lost updates)", counter, want)
	}
	return nil
}

// stressCond runs producer/consumer pairs over a one-slot mailbox
// guarded by a mutex and a condition variable.
func stressCond(s Scenario) error {
	pairs := s.Threads / 2
	if pairs == 0 {
		pairs = 1
	}

	var firstErr atomic.Value
	ids := make([]thread.ID, 0, pairs*2)

	for p := 0; p < pairs; p++ {
		var (
			mu   thread.Mutex
			cond thread.Cond
			full bool
			box  int
		)

		producer, err := thread.Create(func(interface{}) interface{} {
			for n := 0; n < s.Iterations; n++ {
				mu.Lock()
				for full {
					cond.Wait(&mu)
				}
				box = n
				full = true
				cond.Signal()
				mu.Unlock()
			}
			return nil
		}, nil)
		if err != nil {
			return err
		}
		ids = append(ids, producer)

		consumer, err := thread.Create(func(interface{}) interface{} {
			for n := 0; n < s.Iterations; n++ {
				mu.Lock()
				for !full {
					cond.Wait(&mu)
				}
				if box != n {
					firstErr.CompareAndSwap(nil, errors.Errorf("consumed %d, want %d", box, n))
				}
				full = false
				cond.Signal()
				mu.Unlock()
			}
			return nil
		}, nil)
		if err != nil {
			return err
		}
		ids = append(ids, consumer)
	}

	for _, id := range ids {
		if _, err := thread.Join(id); err != nil {
			return err
		}
	}
	if err, ok := firstErr.Load().(error); ok {
		return err
	}
	return nil
}

// stressOnce races s.Threads threads into one Once and checks the
// initializer ran exactly once and everyone observed completion.
func stressOnce(s Scenario) error {
	var (
		guard thread.Once
		runs  atomic.Int32
	)
	ids := make([]thread.ID, 0, s.Threads)
	for i := 0; i < s.Threads; i++ {
		id, err := thread.Create(func(interface{}) interface{} {
			guard.Do(func() {
				runs.Add(1)
			})
			return guard.Done()
		}, nil)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		v, err := thread.Join(id)
		if err != nil {
			return err
		}
		if v != true {
			return errors.New("a caller returned before completion")
		}
	}
	if n := runs.Load(); n != 1 {
		return errors.Errorf("initializer ran %d times, want 1", n)
	}
	return nil
}

// stressTLS has each thread write its own value under a shared key and
// read it back across s.Iterations rounds.
func stressTLS(s Scenario) error {
	key, err := thread.KeyCreate(nil)
	if err != nil {
		return err
	}
	defer thread.KeyDelete(key)

	ids := make([]thread.ID, 0, s.Threads)
	for i := 0; i < s.Threads; i++ {
		id, err := thread.Create(func(arg interface{}) interface{} {
			mine := arg.(int)
			for n := 0; n < s.Iterations; n++ {
				if err := thread.SetSpecific(key, mine*1000+n); err != nil {
					return err
				}
				if got := thread.GetSpecific(key); got != mine*1000+n {
					return errors.Errorf("thread %d read %v, want %d", mine, got, mine*1000+n)
				}
			}
			return nil
		}, i)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		if v, err := thread.Join(id); err != nil {
			return err
		} else if v != nil {
			return v.(error)
		}
	}
	return nil
}
