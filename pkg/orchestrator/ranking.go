package orchestrator

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// lastUsedSource abstracts registry.LastUsedOf so ranking stays testable
// without constructing a full registry.Registry.
type lastUsedSource interface {
	LastUsedOf(name string) time.Time
}

// rankCandidates orders candidates per spec §4.4 step 4: (a) an explicit
// preferredName/preferredType match wins outright, (b) a file-extension or
// prompt-keyword heuristic match ranks next, (c) least-recently-used
// breaks remaining ties. candidates is never empty; callers check that
// before ranking.
func rankCandidates(candidates []types.Agent, preferredName string, preferredType types.AgentType, req *types.Request, lru lastUsedSource) []types.Agent {
	heuristicType := heuristicAgentType(req)

	ranked := make([]types.Agent, len(candidates))
	copy(ranked, candidates)

	score := func(a types.Agent) int {
		switch {
		case preferredName != "" && a.Name() == preferredName:
			return 3
		case preferredType != "" && a.Type() == preferredType:
			return 2
		case heuristicType != "" && a.Type() == heuristicType:
			return 1
		default:
			return 0
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		return lru.LastUsedOf(ranked[i].Name()).Before(lru.LastUsedOf(ranked[j].Name()))
	})
	return ranked
}

// heuristicAgentType derives a candidate agent type from the request's
// file extension, falling back to a prompt keyword scan (spec §4.4
// step 4b). Returns "" if neither signal matches.
func heuristicAgentType(req *types.Request) types.AgentType {
	if req.FilePath != "" {
		ext := strings.ToLower(filepath.Ext(req.FilePath))
		if t, ok := extensionHeuristics[ext]; ok {
			return t
		}
	}
	lower := strings.ToLower(req.Prompt)
	for keyword, t := range keywordHeuristics {
		if strings.Contains(lower, keyword) {
			return t
		}
	}
	return ""
}
