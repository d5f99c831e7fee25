package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunKnowledgeIndexSeedsAndBuildsDefaultGraph(t *testing.T) {
	projectDir := t.TempDir()

	require.NoError(t, runKnowledge([]string{"index", "-projectdir", projectDir}))

	seeded := filepath.Join(projectDir, ".a3sist", defaultKnowledgeGraphFile)
	_, err := os.Stat(seeded)
	require.NoError(t, err, "expected the default knowledge graph to be seeded")

	rt, err := buildRuntime(projectDir, "")
	require.NoError(t, err)
	defer rt.Close()

	var nodeCount int
	require.NoError(t, rt.knowledgeDB.QueryRow(
		"SELECT COUNT(*) FROM nodes WHERE session_id = ?", knowledgeSessionID,
	).Scan(&nodeCount))
	require.Positive(t, nodeCount)
}

func TestRunKnowledgeIndexSkipsUnchangedGraph(t *testing.T) {
	projectDir := t.TempDir()

	require.NoError(t, runKnowledge([]string{"index", "-projectdir", projectDir}))
	require.NoError(t, runKnowledge([]string{"index", "-projectdir", projectDir}))
}

func TestRunKnowledgeIndexWithExplicitDot(t *testing.T) {
	projectDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, ".a3sist"), 0o755))
	dotPath := filepath.Join(projectDir, "custom.dot")
	require.NoError(t, os.WriteFile(dotPath, []byte(`digraph G {
		"a" [type="pattern", level="implementation", description="test node"]
	}`), 0o600))

	require.NoError(t, runKnowledge([]string{"index", "-projectdir", projectDir, "-dot", dotPath}))
}

func TestRunKnowledgeRequiresProjectDir(t *testing.T) {
	err := runKnowledge([]string{"index"})
	require.Error(t, err)
}

func TestRunKnowledgeRequiresSubcommand(t *testing.T) {
	err := runKnowledge(nil)
	require.Error(t, err)
}

func TestRunKnowledgeUnknownSubcommand(t *testing.T) {
	err := runKnowledge([]string{"bogus"})
	require.Error(t, err)
}
