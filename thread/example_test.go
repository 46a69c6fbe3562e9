package thread_test

import (
	"fmt"

	"github.com/anyos/threads/thread"
)

// Example demonstrates creating a thread and collecting its result.
func Example() {
	id, err := thread.Create(func(arg interface{}) interface{} {
		return arg.(int) * 2
	}, 21)
	if err != nil {
		fmt.Println("create:", err)
		return
	}

	result, err := thread.Join(id)
	if err != nil {
		fmt.Println("join:", err)
		return
	}
	fmt.Println(result)

	// Output:
	// 42
}

// Example_mutex demonstrates protecting shared state across threads.
func Example_mutex() {
	var (
		mu    thread.Mutex
		total int
	)

	ids := make([]thread.ID, 4)
	for i := range ids {
		id, err := thread.Create(func(interface{}) interface{} {
			for n := 0; n < 100; n++ {
				mu.Lock()
				total++
				mu.Unlock()
			}
			return nil
		}, nil)
		if err != nil {
			fmt.Println("create:", err)
			return
		}
		ids[i] = id
	}
	for _, id := range ids {
		thread.Join(id)
	}

	mu.Lock()
	fmt.Println(total)
	mu.Unlock()

	// Output:
	// 400
}

// Example_once demonstrates one-time initialization shared by threads.
func Example_once() {
	var setup thread.Once

	ids := make([]thread.ID, 3)
	for i := range ids {
		id, err := thread.Create(func(interface{}) interface{} {
			setup.Do(func() { fmt.Println("initialized") })
			return nil
		}, nil)
		if err != nil {
			fmt.Println("create:", err)
			return
		}
		ids[i] = id
	}
	for _, id := range ids {
		thread.Join(id)
	}

	// Output:
	// initialized
}

// Example_tls demonstrates thread-local storage with a destructor.
func Example_tls() {
	key, err := thread.KeyCreate(func(value interface{}) {
		fmt.Println("cleaned up:", value)
	})
	if err != nil {
		fmt.Println("keycreate:", err)
		return
	}
	defer thread.KeyDelete(key)

	id, err := thread.Create(func(interface{}) interface{} {
		thread.SetSpecific(key, "scratch buffer")
		return thread.GetSpecific(key)
	}, nil)
	if err != nil {
		fmt.Println("create:", err)
		return
	}

	result, _ := thread.Join(id)
	fmt.Println("saw:", result)

	// Output:
	// cleaned up: scratch buffer
	// saw: scratch buffer
}
