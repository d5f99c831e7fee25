package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

// scanPollInterval is how often runScan polls GetCurrentReport while
// waiting for the engine to finish; the engine itself publishes progress
// on the bus, but a one-shot CLI invocation has no subscriber to watch it.
const scanPollInterval = 200 * time.Millisecond

// runScan walks -path once with the scan engine and prints the resulting
// report, blocking until the scan reaches a terminal status.
func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	projectDir := fs.String("projectdir", "", "project directory containing .a3sist")
	path := fs.String("path", "", "workspace path to scan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectDir == "" {
		return fmt.Errorf("-projectdir is required")
	}
	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	rt, err := buildRuntime(*projectDir, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	if err := rt.Scan.Start(ctx, *path); err != nil {
		return fmt.Errorf("start scan: %w", err)
	}

	for rt.Scan.Running() {
		time.Sleep(scanPollInterval)
	}

	report := rt.Scan.GetCurrentReport()
	fmt.Fprintf(os.Stdout, "scan %s: %d/%d files analyzed, %d findings, %d recommendations\n",
		report.Status, report.FilesAnalyzed, report.TotalFiles, len(report.Findings), len(report.Recommendations))
	for _, f := range report.Findings {
		fmt.Fprintf(os.Stdout, "  [%s] %s:%d %s\n", f.Severity, f.FilePath, f.Line, f.Message)
	}
	for _, r := range report.Recommendations {
		fmt.Fprintf(os.Stdout, "  recommend: %s — %s\n", r.Title, r.Detail)
	}
	if report.Error != "" {
		return fmt.Errorf("scan ended with error: %s", report.Error)
	}
	return nil
}
