// Package scan implements the Workspace Scan Engine (spec §4.6, C6): an
// Engine that walks a workspace directory, analyzes each
// supported file via the CodeAnalysis collaborator, and accumulates a
// ScanReport while publishing progress/issue/completion events over the
// bus. Each Engine runs at most one scan at a time; the package does not
// limit how many Engines a process constructs. Grounded on the teacher's pkg/workspace binary-size walker (the
// skip-directory/skip-file filtering idiom) generalized from a size audit
// to a language-analysis pass.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// maxFileSize is the per-file skip threshold (spec §4.6 step 1).
const maxFileSize = 2 * 1024 * 1024

// yieldInterval is how often the sequential walk cooperatively yields
// (spec §4.6 step 3: "cooperatively yielding every ~50 ms").
const yieldInterval = 50 * time.Millisecond

// performanceFindingThreshold is the count of PerformanceIssue findings
// above which a "Performance Optimization" recommendation is synthesized
// (spec §4.6 step 4).
const performanceFindingThreshold = 5

//nolint:gochecknoglobals // fixed default allowlist, overridable via SetSupportedExtensions
var defaultSupportedExtensions = map[string]bool{
	".cs": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".cpp": true, ".cc": true, ".c": true, ".h": true, ".hpp": true,
	".java": true, ".go": true, ".rb": true, ".php": true, ".rs": true,
	".md": true, ".json": true, ".yaml": true, ".yml": true, ".sql": true,
}

//nolint:gochecknoglobals // fixed directory skip-list, mirrors the teacher's workspace walker
var skipDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "vendor": true, "target": true,
	"build": true, "dist": true, "bin": true, "obj": true,
	"__pycache__": true, ".pytest_cache": true, ".venv": true, "venv": true,
}

// insightSource requests a model completion for per-file AI insight
// (spec §4.6 step 3, optional). *provider.Manager satisfies this.
type insightSource interface {
	SendRequest(ctx context.Context, req provider.CompletionRequest) (provider.CompletionResponse, error)
}

// ProgressEvent is published on eventbus.TopicScanProgress after each
// file (spec §4.6 step 3).
type ProgressEvent struct {
	Current int
	Total   int
	Percent float64
	ETA     time.Duration
	Message string
}

// IssueFoundEvent is published on eventbus.TopicScanIssueFound for every
// Finding as it's discovered (spec §4.6 step 3).
type IssueFoundEvent struct {
	Finding  types.Finding
	FilePath string
}

// CompletedEvent is published on eventbus.TopicScanCompleted when a scan
// reaches a terminal state (spec §4.6 step 4).
type CompletedEvent struct {
	Report   types.ScanReport
	Success  bool
	Error    string
	Duration time.Duration
}

// Engine is the Workspace Scan Engine (C6, spec §4.6). At most one scan
// runs at a time per Engine. The zero value is not usable; construct
// with New.
type Engine struct {
	analysis  types.CodeAnalysis
	knowledge types.Knowledge // optional, reserved for future context augmentation
	insights  insightSource   // optional
	bus       *eventbus.Bus
	logger    *logx.Logger

	mu         sync.Mutex
	extensions map[string]bool
	running    bool
	report     *types.ScanReport
	cancel     context.CancelFunc
}

// New builds an Engine. analysis must not be nil. knowledge and insights
// may be nil to disable those optional collaborators; bus may be nil to
// disable event publication.
func New(analysis types.CodeAnalysis, knowledge types.Knowledge, insights insightSource, bus *eventbus.Bus) *Engine {
	return &Engine{
		analysis:   analysis,
		knowledge:  knowledge,
		insights:   insights,
		bus:        bus,
		logger:     logx.NewLogger("scan"),
		extensions: defaultSupportedExtensions,
		report:     &types.ScanReport{Status: types.ScanNotStarted},
	}
}

// SetSupportedExtensions overrides the default supported-extension
// allowlist (spec §4.6 step 1: "a configured set").
func (e *Engine) SetSupportedExtensions(exts []string) {
	m := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m[strings.ToLower(ext)] = true
	}
	e.mu.Lock()
	e.extensions = m
	e.mu.Unlock()
}

// Start begins a scan of path (spec §4.6). It rejects if a scan is
// already running, if path doesn't exist, or if path isn't a directory.
// The scan itself runs asynchronously; callers observe it via
// GetCurrentReport or the event bus.
func (e *Engine) Start(ctx context.Context, path string) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return types.NewError(types.KindAlreadyExists, "scan.Start", errScanInProgress)
	}
	info, err := os.Stat(path)
	if err != nil {
		e.mu.Unlock()
		return types.NewError(types.KindInvalidArgument, "scan.Start", err)
	}
	if !info.IsDir() {
		e.mu.Unlock()
		return types.NewError(types.KindInvalidArgument, "scan.Start", errNotADirectory)
	}

	scanCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.report = &types.ScanReport{
		ID:            uuid.New(),
		WorkspacePath: path,
		StartTime:     time.Now(),
		Status:        types.ScanRunning,
	}
	e.mu.Unlock()

	go e.run(scanCtx, path)
	return nil
}

// Stop cooperatively cancels the running scan, if any, reporting whether
// one was running to cancel.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.cancel == nil {
		return false
	}
	e.cancel()
	return true
}

// Running reports whether a scan is currently in flight.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// GetCurrentReport returns a consistent snapshot of the live report.
func (e *Engine) GetCurrentReport() types.ScanReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() types.ScanReport {
	r := *e.report
	r.Findings = append([]types.Finding(nil), e.report.Findings...)
	r.Recommendations = append([]types.Recommendation(nil), e.report.Recommendations...)
	stats := make(map[string]float64, len(e.report.Statistics))
	for k, v := range e.report.Statistics {
		stats[k] = v
	}
	r.Statistics = stats
	return r
}

// run executes the sequential walk-and-analyze pass (spec §4.6 steps
// 1-4). It always runs to a terminal state and publishes exactly one
// CompletedEvent.
func (e *Engine) run(ctx context.Context, root string) {
	files, err := e.enumerateFiles(root)
	if err != nil {
		e.finish(types.ScanFailed, err.Error())
		return
	}

	e.mu.Lock()
	e.report.TotalFiles = len(files)
	e.mu.Unlock()

	start := time.Now()
	lastYield := start

	for _, path := range files {
		if ctx.Err() != nil {
			e.finish(types.ScanCancelled, "")
			return
		}

		e.analyzeFile(ctx, path)

		e.mu.Lock()
		e.report.FilesAnalyzed++
		processed, total := e.report.FilesAnalyzed, e.report.TotalFiles
		e.mu.Unlock()

		e.publishProgress(processed, total, start, path)

		if time.Since(lastYield) >= yieldInterval {
			time.Sleep(time.Millisecond)
			lastYield = time.Now()
		}
	}

	e.finish(types.ScanCompleted, "")
}

// analyzeFile implements one iteration of spec §4.6 step 3: read, detect
// language, collect issues, map to Findings, optionally request an AI
// insight.
func (e *Engine) analyzeFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // workspace scan is expected to read arbitrary project files
	if err != nil || len(data) == 0 {
		return
	}
	content := string(data)
	language := e.analysis.DetectLanguage(content, filepath.Base(path))

	issues, err := e.analysis.AnalyzeCode(ctx, content, language)
	if err != nil {
		e.logger.Warn("analysis failed for %s: %v", path, err)
		return
	}
	if len(issues) == 0 {
		return
	}

	for _, issue := range issues {
		finding := types.Finding{
			FilePath:   path,
			Language:   language,
			Severity:   issue.Severity,
			Type:       issue.Type,
			Message:    issue.Message,
			Line:       issue.Line,
			Confidence: issue.Confidence,
		}
		e.mu.Lock()
		e.report.Findings = append(e.report.Findings, finding)
		e.mu.Unlock()
		e.publish(eventbus.TopicScanIssueFound, IssueFoundEvent{Finding: finding, FilePath: path})
	}

	if e.insights != nil {
		e.requestInsight(ctx, path, language, issues)
	}
}

// requestInsight asks the active model for a recommendation covering
// this file's issues. Per spec §9's open question, provider failures are
// swallowed: an unreachable or unconfigured model degrades the scan to
// analysis-only rather than failing it.
func (e *Engine) requestInsight(ctx context.Context, path, language string, issues []types.Issue) {
	prompt := fmt.Sprintf("Review this %s file (%s). Findings:\n%ssuggest one concise, actionable recommendation.",
		language, path, summarizeIssues(issues))

	resp, err := e.insights.SendRequest(ctx, provider.CompletionRequest{Prompt: prompt, MaxTokens: 200})
	if err != nil {
		e.logger.Debug("AI insight skipped for %s: %v", path, err)
		return
	}
	if strings.TrimSpace(resp.Content) == "" {
		return
	}
	e.mu.Lock()
	e.report.Recommendations = append(e.report.Recommendations, types.Recommendation{
		Title:  fmt.Sprintf("AI insight: %s", filepath.Base(path)),
		Detail: resp.Content,
	})
	e.mu.Unlock()
}

func summarizeIssues(issues []types.Issue) string {
	var b strings.Builder
	for _, iss := range issues {
		fmt.Fprintf(&b, "- [%s/%s] line %d: %s\n", iss.Severity, iss.Type, iss.Line, iss.Message)
	}
	return b.String()
}

// publishProgress implements spec §4.6 step 3's Progress event, computing
// ETA from the average per-file duration observed so far.
func (e *Engine) publishProgress(processed, total int, start time.Time, path string) {
	var eta time.Duration
	if processed > 0 && total > processed {
		eta = time.Since(start) / time.Duration(processed) * time.Duration(total-processed)
	}
	percent := 0.0
	if total > 0 {
		percent = float64(processed) / float64(total) * 100
	}
	e.publish(eventbus.TopicScanProgress, ProgressEvent{
		Current: processed, Total: total, Percent: percent, ETA: eta,
		Message: fmt.Sprintf("analyzed %s", filepath.Base(path)),
	})
}

// finish transitions the report to a terminal status, computes summary
// statistics and synthesized recommendations, and publishes the one
// CompletedEvent for this scan (spec §4.6 step 4).
func (e *Engine) finish(status types.ScanStatus, errMsg string) {
	e.mu.Lock()
	e.report.Status = status
	e.report.Error = errMsg
	e.report.EndTime = time.Now()
	e.computeStatisticsLocked()
	e.synthesizeRecommendationsLocked()
	snapshot := e.snapshotLocked()
	e.running = false
	e.cancel = nil
	e.mu.Unlock()

	e.publish(eventbus.TopicScanCompleted, CompletedEvent{
		Report:   snapshot,
		Success:  status == types.ScanCompleted,
		Error:    errMsg,
		Duration: snapshot.EndTime.Sub(snapshot.StartTime),
	})
}

// computeStatisticsLocked populates Statistics["bySeverity.<sev>"],
// Statistics["byType.<type>"], and Statistics["durationSeconds"].
// Caller must hold e.mu.
func (e *Engine) computeStatisticsLocked() {
	stats := make(map[string]float64)
	for _, f := range e.report.Findings {
		stats["bySeverity."+string(f.Severity)]++
		stats["byType."+string(f.Type)]++
	}
	stats["durationSeconds"] = e.report.EndTime.Sub(e.report.StartTime).Seconds()
	e.report.Statistics = stats
}

// synthesizeRecommendationsLocked implements spec §4.6 step 4's two
// synthesized recommendations. Caller must hold e.mu.
func (e *Engine) synthesizeRecommendationsLocked() {
	var security, perf int
	for _, f := range e.report.Findings {
		switch f.Type {
		case types.FindingSecurityIssue:
			security++
		case types.FindingPerformanceIssue:
			perf++
		}
	}
	if security > 0 {
		e.report.Recommendations = append(e.report.Recommendations, types.Recommendation{
			Title:  "Security Review Required",
			Detail: fmt.Sprintf("%d security finding(s) detected; schedule a focused review.", security),
		})
	}
	if perf > performanceFindingThreshold {
		e.report.Recommendations = append(e.report.Recommendations, types.Recommendation{
			Title:  "Performance Optimization",
			Detail: fmt.Sprintf("%d performance finding(s) detected across the workspace.", perf),
		})
	}
}

func (e *Engine) publish(topic eventbus.Topic, data any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(topic, data)
}

// enumerateFiles implements spec §4.6 step 1: a recursive walk including
// only supported extensions and excluding files over maxFileSize.
// Grounded on the teacher's pkg/workspace.CheckBinarySizes walker.
func (e *Engine) enumerateFiles(root string) ([]string, error) {
	e.mu.Lock()
	extensions := e.extensions
	e.mu.Unlock()

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return filepath.SkipDir
		}
		if info.IsDir() {
			if path != root && skipDirectory(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Size() > maxFileSize {
			return nil
		}
		if !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func skipDirectory(name string) bool {
	if skipDirs[name] {
		return true
	}
	return strings.HasPrefix(name, ".")
}
