package main

import (
	"flag"
	"fmt"
	"os"
)

// runStatus prints a point-in-time snapshot of the queue, governor,
// registry, active model, and MCP servers — the read-only counterpart to
// the mutating model/mcp subcommands.
func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	projectDir := fs.String("projectdir", "", "project directory containing .a3sist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectDir == "" {
		return fmt.Errorf("-projectdir is required")
	}

	rt, err := buildRuntime(*projectDir, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	stats := rt.Queue.Stats()
	fmt.Fprintf(os.Stdout, "queue:    depth=%d throughput/min=%.1f\n", rt.Queue.Size(), stats.ThroughputPerMin)
	fmt.Fprintf(os.Stdout, "governor: capacity=%d inUse=%d\n", rt.Governor.Capacity(), rt.Governor.InUse())
	fmt.Fprintf(os.Stdout, "registry: %d agents registered\n", len(rt.Registry.All()))

	if active, activeErr := rt.Providers.GetActive(); activeErr == nil {
		fmt.Fprintf(os.Stdout, "provider: active model=%s (provider=%s, available=%v)\n",
			active.ID, active.Provider, active.IsAvailable)
	} else {
		fmt.Fprintf(os.Stdout, "provider: no active model (%v)\n", activeErr)
	}

	servers := rt.MCP.Servers()
	connected := 0
	for _, s := range servers {
		if s.IsConnected {
			connected++
		}
	}
	fmt.Fprintf(os.Stdout, "mcp:      %d/%d servers connected\n", connected, len(servers))

	return nil
}
