// Package main is the a3sist composition root: an administrative CLI that
// wires every core component together against a project's .a3sist config
// directory. Grounded on the teacher's cmd/maestro/bootstrap.go
// (BootstrapRunner: load config, build the rate limiter, build the
// dispatcher, open the database) and cmd/maestro/main.go's top-level
// subcommand dispatch. Per spec.md §1, the HTTP/RPC surface and realtime
// push channel are external collaborators: this binary never opens a
// network listener, only performs one administrative action per
// invocation (or, for "serve", runs the background schedulers in-process
// until signaled).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/codeanalysis"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/config"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventlog"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/governor"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/knowledge"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/mcp"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/metrics"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/orchestrator"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/queue"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/registry"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/scan"

	_ "modernc.org/sqlite" // pure-Go driver backing the knowledge store
)

// eventLogRotationHours matches the teacher's daily-rotation default.
const eventLogRotationHours = 24

// knowledgeSessionID scopes the single-project CLI's knowledge graph rows.
// A multi-session host would derive this per workspace/story instead.
const knowledgeSessionID = "default"

// Runtime bundles every core component (C1-C10, ambient stack) built from
// one loaded Config. Construct with buildRuntime; release background
// resources with Close.
//
//nolint:govet // field grouping favors readability over alignment here
type Runtime struct {
	projectDir string
	cfg        config.Config
	logger     *logx.Logger

	bus         *eventbus.Bus
	evLog       *eventlog.Writer
	recorder    metrics.Recorder
	poller      *metrics.Poller
	evCancel    context.CancelFunc
	mxCancel    context.CancelFunc
	knowledgeDB *sql.DB
	Queue       *queue.Queue
	Registry    *registry.Registry
	Governor    *governor.Governor
	Providers   *provider.Manager
	MCP         *mcp.Manager
	Scan        *scan.Engine
	Orch        *orchestrator.Orchestrator
}

// buildRuntime loads the config at projectDir/.a3sist and wires every
// component against it, mirroring the teacher's NewBootstrapRunner. logDir
// is where the event-log JSONL sink rotates; pass "" to disable it.
func buildRuntime(projectDir, logDir string) (*Runtime, error) {
	if err := config.Load(projectDir); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	bus := eventbus.New()
	logger := logx.NewLogger("a3sist")

	rt := &Runtime{
		projectDir: projectDir,
		cfg:        cfg,
		logger:     logger,
		bus:        bus,
		recorder:   metrics.NewPrometheusRecorder(),
		Queue:      queue.New(bus),
		Registry:   registry.New(bus),
		Providers:  provider.NewManager(bus),
		MCP:        mcp.New(bus),
	}
	rt.Governor = governor.New(rt.Queue, bus)

	kdb, err := sql.Open("sqlite", filepath.Join(projectDir, ".a3sist", "knowledge.db"))
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}
	if err := knowledge.InitSchema(kdb); err != nil {
		kdb.Close()
		return nil, fmt.Errorf("init knowledge schema: %w", err)
	}
	rt.knowledgeDB = kdb
	retriever := knowledge.NewRetriever(kdb, knowledgeSessionID)

	rt.Scan = scan.New(codeanalysis.New(), retriever, nil, bus)
	if len(rt.cfg.Scan.SupportedExtensions) > 0 {
		rt.Scan.SetSupportedExtensions(rt.cfg.Scan.SupportedExtensions)
	}
	rt.Orch = orchestrator.New(rt.Registry, rt.Governor, nil)

	for _, m := range cfg.Models {
		if addErr := rt.Providers.AddModel(m); addErr != nil {
			logger.Warn("skipping configured model %q: %v", m.ID, addErr)
		}
	}
	for _, s := range cfg.MCPServers {
		if addErr := rt.MCP.AddServer(s); addErr != nil {
			logger.Warn("skipping configured MCP server %q: %v", s.ID, addErr)
		}
	}

	if logDir != "" {
		w, wErr := eventlog.NewWriter(logDir, eventLogRotationHours)
		if wErr != nil {
			return nil, fmt.Errorf("open event log: %w", wErr)
		}
		rt.evLog = w
		evCtx, evCancel := context.WithCancel(context.Background())
		rt.evCancel = evCancel
		go w.Mirror(evCtx, bus, []eventbus.Topic{
			eventbus.TopicActiveModel,
			eventbus.TopicTaskEnqueued,
			eventbus.TopicTaskDequeued,
			eventbus.TopicScanProgress,
			eventbus.TopicScanCompleted,
			eventbus.TopicGovernorResized,
			eventbus.TopicServerStatus,
			eventbus.TopicAgentStatus,
		})
	}

	mxCtx, mxCancel := context.WithCancel(context.Background())
	rt.mxCancel = mxCancel
	if rec, ok := rt.recorder.(*metrics.PrometheusRecorder); ok {
		go rec.Mirror(mxCtx, bus)
	}
	rt.poller = metrics.NewPoller(rt.recorder, rt.Queue, nil, rt.Governor)

	return rt, nil
}

// Close stops every background goroutine/timer the Runtime started.
// Subcommands that only perform a single synchronous action must still
// call Close before exiting so the process doesn't hang on a live timer.
func (rt *Runtime) Close() {
	if rt.evCancel != nil {
		rt.evCancel()
	}
	if rt.mxCancel != nil {
		rt.mxCancel()
	}
	if rt.evLog != nil {
		_ = rt.evLog.Close()
	}
	rt.Providers.Close()
	rt.Registry.Stop()
	rt.Governor.Stop()
	rt.MCP.Stop()
	if rt.poller != nil {
		rt.poller.Stop()
	}
	if rt.knowledgeDB != nil {
		_ = rt.knowledgeDB.Close()
	}
}
