package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/knowledge"
)

// defaultKnowledgeGraphFile is where a project's starter DOT graph is seeded
// the first time "knowledge index" runs without an explicit -dot path.
const defaultKnowledgeGraphFile = "default-knowledge.dot"

// runKnowledge dispatches "a3sist knowledge <subcommand>".
func runKnowledge(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: a3sist knowledge <index> [flags]")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "index":
		return knowledgeIndex(rest)
	default:
		return fmt.Errorf("unknown knowledge subcommand %q", sub)
	}
}

// knowledgeIndex builds (or rebuilds, if the source file changed) the
// knowledge graph that the scan engine's Retriever reads at query time.
// It is the only non-test caller of knowledge.RebuildIndex/IsGraphModified,
// which in turn exercise knowledge.IndexGraph/UpdateMetadata and
// knowledge.ValidateAndReport/ValidateGraph.
func knowledgeIndex(args []string) error {
	fs := flag.NewFlagSet("knowledge index", flag.ExitOnError)
	projectDir := fs.String("projectdir", "", "project directory containing .a3sist")
	dotPath := fs.String("dot", "", "path to a DOT knowledge graph file (defaults to a seeded starter graph)")
	force := fs.Bool("force", false, "rebuild even if the source file is unchanged")
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

	path := *dotPath
	if path == "" {
		path, err = seedDefaultGraph(*projectDir)
		if err != nil {
			return err
		}
	}

	modified, err := knowledge.IsGraphModified(rt.knowledgeDB, path, knowledgeSessionID)
	if err != nil {
		return fmt.Errorf("check knowledge graph: %w", err)
	}
	if !modified && !*force {
		fmt.Fprintf(os.Stdout, "knowledge graph %q unchanged, nothing to do\n", path)
		return nil
	}

	if err := knowledge.RebuildIndex(rt.knowledgeDB, path, knowledgeSessionID); err != nil {
		return fmt.Errorf("rebuild knowledge index: %w", err)
	}
	fmt.Fprintf(os.Stdout, "indexed knowledge graph %q\n", path)
	return nil
}

// seedDefaultGraph writes knowledge.DefaultKnowledgeGraph under
// <projectDir>/.a3sist the first time a project is indexed without an
// explicit source file, then returns its path.
func seedDefaultGraph(projectDir string) (string, error) {
	path := filepath.Join(projectDir, ".a3sist", defaultKnowledgeGraphFile)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat default knowledge graph: %w", err)
	}
	if err := os.WriteFile(path, []byte(knowledge.DefaultKnowledgeGraph), 0o600); err != nil {
		return "", fmt.Errorf("seed default knowledge graph: %w", err)
	}
	return path, nil
}
