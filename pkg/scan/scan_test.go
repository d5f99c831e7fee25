package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// fakeAnalysis is a deterministic CodeAnalysis stub: it flags any file
// whose content contains "BUG" with a Bug finding, and any file
// containing "PASSWORD" with a SecurityIssue finding.
type fakeAnalysis struct{}

func (fakeAnalysis) DetectLanguage(_, _ string) string { return "text" }

func (fakeAnalysis) AnalyzeCode(_ context.Context, content, _ string) ([]types.Issue, error) {
	var issues []types.Issue
	if strings.Contains(content, "BUG") {
		issues = append(issues, types.Issue{
			Severity: types.SeverityMedium, Type: types.FindingBug,
			Message: "found BUG marker", Line: 1, Confidence: 0.8,
		})
	}
	if strings.Contains(content, "PASSWORD") {
		issues = append(issues, types.Issue{
			Severity: types.SeverityCritical, Type: types.FindingSecurityIssue,
			Message: "hardcoded credential", Line: 1, Confidence: 0.95,
		})
	}
	return issues, nil
}

func (fakeAnalysis) ExtractContext(string, int) (types.CodeContext, error) {
	return types.CodeContext{}, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestStartRejectsMissingPath(t *testing.T) {
	e := New(fakeAnalysis{}, nil, nil, nil)
	err := e.Start(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
}

func TestStartRejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.py", "print(1)")
	e := New(fakeAnalysis{}, nil, nil, nil)
	err := e.Start(context.Background(), filepath.Join(dir, "f.py"))
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
}

func TestStartRejectsWhenAlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, dir, testFileName("f", i), "print(1)\n")
	}
	e := New(fakeAnalysis{}, nil, nil, nil)
	require.NoError(t, e.Start(context.Background(), dir))

	err := e.Start(context.Background(), dir)
	require.Error(t, err)
	assert.Equal(t, types.KindAlreadyExists, types.KindOf(err))

	waitForCompletion(t, e)
}

func TestScanFindsAndReportsIssues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.py", "print('fine')\n")
	writeFile(t, dir, "bad.py", "# BUG: off by one\n")
	writeFile(t, dir, "secret.py", "PASSWORD = 'hunter2'\n")
	writeFile(t, dir, "ignored.bin", "not analyzed\n")

	bus := eventbus.New()
	sub := bus.Subscribe(eventbus.TopicScanCompleted, 4)
	e := New(fakeAnalysis{}, nil, nil, bus)

	require.NoError(t, e.Start(context.Background(), dir))

	select {
	case evt := <-sub.Events():
		completed, ok := evt.Data.(CompletedEvent)
		require.True(t, ok)
		assert.True(t, completed.Success)
		assert.Equal(t, types.ScanCompleted, completed.Report.Status)
		assert.Equal(t, 3, completed.Report.TotalFiles)
		assert.Len(t, completed.Report.Findings, 2)
		assert.GreaterOrEqual(t, completed.Report.Statistics["durationSeconds"], 0.0)
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not complete in time")
	}

	report := e.GetCurrentReport()
	assert.False(t, e.Running())
	hasSecurityRecommendation := false
	for _, r := range report.Recommendations {
		if r.Title == "Security Review Required" {
			hasSecurityRecommendation = true
		}
	}
	assert.True(t, hasSecurityRecommendation)
}

func TestStopCancelsInFlightScan(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 500; i++ {
		writeFile(t, dir, testFileName("g", i), "print('x')\n# filler\n")
	}

	bus := eventbus.New()
	sub := bus.Subscribe(eventbus.TopicScanCompleted, 1)
	e := New(slowAnalysis{}, nil, nil, bus)
	require.NoError(t, e.Start(context.Background(), dir))

	assert.True(t, e.Stop())

	select {
	case evt := <-sub.Events():
		completed, ok := evt.Data.(CompletedEvent)
		require.True(t, ok)
		assert.False(t, completed.Success)
		assert.Equal(t, types.ScanCancelled, completed.Report.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled scan did not complete in time")
	}
}

// slowAnalysis sleeps briefly per file so TestStopCancelsInFlightScan can
// reliably cancel mid-walk.
type slowAnalysis struct{}

func (slowAnalysis) DetectLanguage(string, string) string { return "text" }
func (slowAnalysis) AnalyzeCode(_ context.Context, _, _ string) ([]types.Issue, error) {
	time.Sleep(2 * time.Millisecond)
	return nil, nil
}
func (slowAnalysis) ExtractContext(string, int) (types.CodeContext, error) {
	return types.CodeContext{}, nil
}

func TestRequestsAIInsightWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.py", "# BUG: leak\n")

	insight := &fakeInsightSource{content: "extract this into a helper"}
	e := New(fakeAnalysis{}, nil, insight, nil)
	require.NoError(t, e.Start(context.Background(), dir))
	waitForCompletion(t, e)

	report := e.GetCurrentReport()
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0].Detail, "extract this into a helper")
	assert.Equal(t, 1, insight.calls)
}

func TestRequestInsightFailureIsSwallowed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.py", "# BUG: leak\n")

	insight := &fakeInsightSource{err: types.NewError(types.KindServiceUnavailable, "provider.SendRequest", nil)}
	e := New(fakeAnalysis{}, nil, insight, nil)
	require.NoError(t, e.Start(context.Background(), dir))
	waitForCompletion(t, e)

	report := e.GetCurrentReport()
	assert.Equal(t, types.ScanCompleted, report.Status)
	assert.Empty(t, report.Recommendations)
}

type fakeInsightSource struct {
	content string
	err     error
	calls   int
}

func (f *fakeInsightSource) SendRequest(_ context.Context, _ provider.CompletionRequest) (provider.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return provider.CompletionResponse{}, f.err
	}
	return provider.CompletionResponse{Content: f.content}, nil
}

func testFileName(prefix string, i int) string {
	return prefix + string(rune('a'+(i%26))) + string(rune('a'+(i/26))) + ".py"
}

func waitForCompletion(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for e.Running() {
		if time.Now().After(deadline) {
			t.Fatal("scan did not finish in time")
		}
		time.Sleep(time.Millisecond)
	}
}
