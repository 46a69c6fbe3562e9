package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anyos/threads/thread"
)

// serveMetrics exports the runtime counters as Prometheus gauges on
// addr. Runs until the process exits; callers start it on its own
// thread of control.
func serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()

	gauges := []struct {
		name string
		help string
		read func(thread.Stats) uint64
	}{
		{"threads_created_total", "Threads created since start.",
			func(s thread.Stats) uint64 { return s.ThreadsCreated }},
		{"threads_joined_total", "Threads joined since start.",
			func(s thread.Stats) uint64 { return s.ThreadsJoined }},
		{"threads_detached_total", "Threads detached since start.",
			func(s thread.Stats) uint64 { return s.ThreadsDetached }},
		{"threads_exited_total", "Threads exited since start.",
			func(s thread.Stats) uint64 { return s.ThreadsExited }},
		{"lookup_retries_total", "Trampoline self-discovery retries.",
			func(s thread.Stats) uint64 { return s.LookupRetries }},
		{"lock_yields_total", "Scheduler yields in contended mutex loops.",
			func(s thread.Stats) uint64 { return s.LockYields }},
		{"cond_wakeups_total", "Condition waits that observed a signal.",
			func(s thread.Stats) uint64 { return s.CondWakeups }},
	}

	for _, g := range gauges {
		read := g.read
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "threadstress",
			Name:      g.name,
			Help:      g.help,
		}, func() float64 {
			return float64(read(thread.GetStats()))
		}))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Infof("serving metrics on %s", addr)
	return http.ListenAndServe(addr, mux)
}
