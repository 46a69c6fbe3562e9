// Package main implements the threadstress CLI.
//
// threadstress drives the anyOS user-space threading runtime through
// configurable stress workloads (thread churn, mutex hammering,
// producer/consumer condition signaling, once stampedes and TLS
// round-trips) and verifies their invariants. Hosted, it exercises the
// simulated kernel; on target, the same workloads run against the real
// syscalls.
//
// Usage:
//
//	threadstress run [config.yaml]   # Run scenarios (defaults if no file)
//	threadstress version             # Show runtime version and limits
//	threadstress help                # Show this help
//
// Scenario files are YAML; see Config in config.go. With metrics_addr
// set, the runtime counters are served as Prometheus gauges while the
// scenarios run.
package main

import (
	"fmt"
	"os"

	"github.com/anyos/threads/thread"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "run":
		runCommand(os.Args[2:])
	case "version", "--version", "-v":
		info := thread.GetInfo()
		fmt.Printf("threadstress (runtime %s, max threads %d, max keys %d)\n",
			info.Version, info.MaxThreads, info.MaxKeys)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runCommand(args []string) {
	cfg := defaultConfig()
	if len(args) > 0 {
		loaded, err := loadConfig(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := serveMetrics(cfg.MetricsAddr); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	if failed := runAll(cfg); failed > 0 {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`threadstress - stress driver for the anyOS threading runtime

USAGE:
    threadstress <command> [arguments]

COMMANDS:
    run [config.yaml]    Run stress scenarios (built-in defaults if omitted)
    version              Show runtime version and limits
    help                 Show this help message

SCENARIO KINDS:
    spawn-join    create/join churn in waves
    mutex         shared-counter mutual exclusion
    cond          producer/consumer over a condition variable
    once          concurrent one-time initialization
    tls           per-thread storage round-trips
`)
}
