package codeanalysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

func TestDetectLanguageByExtension(t *testing.T) {
	a := New()
	assert.Equal(t, "Python", a.DetectLanguage("", "main.py"))
	assert.Equal(t, "Go", a.DetectLanguage("", "server.go"))
	assert.Equal(t, "Unknown", a.DetectLanguage("", "data.xyz"))
}

func TestAnalyzeCodeFindsHardcodedCredential(t *testing.T) {
	a := New()
	content := "config = {}\napi_key = \"sk-1234567890abcdef\"\n"

	issues, err := a.AnalyzeCode(context.Background(), content, "Python")
	require.NoError(t, err)
	require.NotEmpty(t, issues)

	var found bool
	for _, iss := range issues {
		if iss.Type == types.FindingSecurityIssue && iss.Line == 2 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeCodeFindsTodoMarker(t *testing.T) {
	a := New()
	content := "def f():\n    # TODO: handle edge case\n    return 1\n"

	issues, err := a.AnalyzeCode(context.Background(), content, "Python")
	require.NoError(t, err)

	var found bool
	for _, iss := range issues {
		if iss.Type == types.FindingMaintainability && iss.Line == 2 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeCodeReturnsNoIssuesForCleanContent(t *testing.T) {
	a := New()
	issues, err := a.AnalyzeCode(context.Background(), "def add(a, b):\n    return a + b\n", "Python")
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestAnalyzeCodeHonorsCancellation(t *testing.T) {
	a := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnalyzeCode(ctx, "x = 1\n", "Python")
	require.Error(t, err)
	assert.Equal(t, types.KindCancelled, types.KindOf(err))
}

func TestExtractContextReturnsContainingLine(t *testing.T) {
	a := New()
	code := "line one\nline two\nline three\n"
	position := len("line one\nline ") // inside "line two"

	ctx, err := a.ExtractContext(code, position)
	require.NoError(t, err)
	assert.Equal(t, "line two", ctx.Snippet)
	assert.Equal(t, 2, ctx.StartLine)
}

func TestExtractContextRejectsOutOfRangePosition(t *testing.T) {
	a := New()
	_, err := a.ExtractContext("short", 100)
	require.Error(t, err)
	assert.Equal(t, types.KindInvalidArgument, types.KindOf(err))
}
