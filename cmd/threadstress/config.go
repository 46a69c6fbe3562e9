package main

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Scenario kinds understood by the runner.
const (
	kindSpawnJoin = "spawn-join"
	kindMutex     = "mutex"
	kindCond      = "cond"
	kindOnce      = "once"
	kindTLS       = "tls"
)

// Scenario describes one stress workload.
type Scenario struct {
	// Name labels the scenario in output.
	Name string `yaml:"name"`

	// Kind selects the workload: spawn-join, mutex, cond, once or tls.
	Kind string `yaml:"kind"`

	// Threads is the number of threads the workload runs. Capped by the
	// runtime's 128-thread registry; spawn-join churns in waves to stay
	// under it.
	Threads int `yaml:"threads"`

	// Iterations is the per-thread work count; what it counts depends
	// on the workload (lock/unlock pairs, spawn waves, TLS updates).
	Iterations int `yaml:"iterations"`

	// StackSize overrides the per-thread stack size in bytes; 0 keeps
	// the runtime default.
	StackSize uintptr `yaml:"stack_size"`
}

// Config is the stress tool's YAML configuration.
type Config struct {
	// MetricsAddr, when non-empty, serves runtime counters as
	// Prometheus gauges on this address (e.g. ":9090").
	MetricsAddr string `yaml:"metrics_addr"`

	Scenarios []Scenario `yaml:"scenarios"`
}

// defaultConfig is used when no config file is given: a quick pass over
// every workload.
func defaultConfig() *Config {
	return &Config{
		Scenarios: []Scenario{
			{Name: "churn", Kind: kindSpawnJoin, Threads: 32, Iterations: 8},
			{Name: "hammer", Kind: kindMutex, Threads: 8, Iterations: 2000},
			{Name: "pingpong", Kind: kindCond, Threads: 4, Iterations: 200},
			{Name: "stampede", Kind: kindOnce, Threads: 16, Iterations: 1},
			{Name: "locals", Kind: kindTLS, Threads: 8, Iterations: 100},
		},
	}
}

// loadConfig reads and validates a YAML config file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Scenarios) == 0 {
		return errors.New("config has no scenarios")
	}
	for i, s := range c.Scenarios {
		switch s.Kind {
		case kindSpawnJoin, kindMutex, kindCond, kindOnce, kindTLS:
		default:
			return errors.Errorf("scenario %d (%q): unknown kind %q", i, s.Name, s.Kind)
		}
		if s.Threads <= 0 {
			return errors.Errorf("scenario %d (%q): threads must be positive", i, s.Name)
		}
		if s.Threads > 128 {
			return errors.Errorf("scenario %d (%q): threads %d exceeds the 128-thread registry", i, s.Name, s.Threads)
		}
		if s.Iterations <= 0 {
			return errors.Errorf("scenario %d (%q): iterations must be positive", i, s.Name)
		}
	}
	return nil
}
