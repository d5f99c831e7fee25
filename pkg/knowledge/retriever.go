package knowledge

import (
	"context"
	"database/sql"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// defaultRetrievalDepth is how many hops of neighbors to include around a
// directly-matched node (spec §6: Knowledge augments provider/scan context
// with "related" material, not just exact matches).
const defaultRetrievalDepth = 1

// Retriever adapts the DOT-graph FTS5 search in this package onto
// types.Knowledge, the external collaborator interface consumed by the
// provider prompt-augmentation path and the scan engine's optional
// insight step (spec §6). It is a thin translation layer: all actual
// search/storage logic stays in Retrieve/loadGraph/searchNodes above.
type Retriever struct {
	db        *sql.DB
	sessionID string
}

// NewRetriever builds a Retriever scoped to sessionID. db must already have
// the knowledge schema applied (nodes, edges, nodes_fts).
func NewRetriever(db *sql.DB, sessionID string) *Retriever {
	return &Retriever{db: db, sessionID: sessionID}
}

// Retrieve implements types.Knowledge. query is treated as free text and
// reduced to search terms with ExtractKeyTerms, then run through the
// package's FTS5 subgraph search; the resulting DOT subgraph is parsed back
// into nodes and translated into KnowledgeItem values.
//
// FTS5's MATCH operator doesn't surface a usable relevance score through
// the query shape searchNodes issues (a plain SELECT, no bm25() column), so
// every item's Score is 1.0 regardless of whether it was a direct term
// match or an included neighbor; see DESIGN.md for this open question.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]types.KnowledgeItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewError(types.KindCancelled, "knowledge.Retrieve", err)
	}
	if k <= 0 {
		k = 20
	}

	terms := ExtractKeyTerms(query, nil)
	result, err := Retrieve(r.db, r.sessionID, RetrievalOptions{
		Terms:      terms,
		Level:      "all",
		MaxResults: k,
		Depth:      defaultRetrievalDepth,
	})
	if err != nil {
		return nil, types.NewError(types.KindInternal, "knowledge.Retrieve", err)
	}
	if result.Count == 0 {
		return nil, nil
	}

	graph, err := ParseDOT(result.Subgraph)
	if err != nil {
		return nil, types.NewError(types.KindInternal, "knowledge.Retrieve", err)
	}
	graph = graph.Filter(func(n *Node) bool { return n.Status != "deprecated" })

	items := make([]types.KnowledgeItem, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		items = append(items, types.KnowledgeItem{
			Source:  nodeSource(node),
			Content: node.Description,
			Score:   1.0,
		})
		if len(items) >= k {
			break
		}
	}
	return items, nil
}

// nodeSource picks the most specific identifier for a node: its file path
// when the graph records one, falling back to the component name, then the
// node ID itself.
func nodeSource(n *Node) string {
	if n.Path != "" {
		return n.Path
	}
	if n.Component != "" {
		return n.Component
	}
	return n.ID
}
