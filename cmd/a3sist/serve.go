package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// defaultCronSchedule is used for any background loop whose config
// tunable is left blank.
const defaultCronSchedule = "@every 30s"

// runServe builds the Runtime, starts every background scheduler
// (registry health poll, governor auto-tune, MCP heartbeat, metrics
// poll), and blocks until SIGINT/SIGTERM, matching the teacher's
// main.go shutdown sequence. This is the only long-running subcommand;
// every other subcommand performs one action and exits.
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	projectDir := fs.String("projectdir", "", "project directory containing .a3sist")
	logDir := fs.String("logdir", "", "directory for the rotated event-log JSONL sink (empty disables it)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectDir == "" {
		return fmt.Errorf("-projectdir is required")
	}

	rt, err := buildRuntime(*projectDir, *logDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registrySchedule := defaultCronSchedule
	if err := rt.Registry.Start(ctx, registrySchedule); err != nil {
		return fmt.Errorf("start registry health poll: %w", err)
	}

	governorSchedule := rt.cfg.Governor.TuneSchedule
	if governorSchedule == "" {
		governorSchedule = defaultCronSchedule
	}
	if err := rt.Governor.Start(governorSchedule); err != nil {
		return fmt.Errorf("start governor auto-tune: %w", err)
	}

	if err := rt.MCP.Start(ctx, defaultCronSchedule); err != nil {
		return fmt.Errorf("start MCP heartbeat: %w", err)
	}

	if err := rt.poller.Start(defaultCronSchedule); err != nil {
		return fmt.Errorf("start metrics poller: %w", err)
	}

	rt.logger.Info("a3sist serving project %q (registry/governor/mcp/metrics running)", *projectDir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	rt.logger.Info("received signal %v, shutting down", sig)

	return nil
}
