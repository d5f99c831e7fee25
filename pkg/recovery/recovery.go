// Package recovery implements the Recovery Planner (spec §4.10): a pure
// function choosing an alternate agent when the Orchestrator's dispatch
// loop exhausts retries against the primary. It holds no state of its own
// and is grounded on the same candidate-ranking shape the Orchestrator
// uses in pkg/orchestrator, reduced to the planner's narrower rule.
package recovery

import "github.com/ShadmanAbir/A3sist-sub000/pkg/types"

// Plan chooses a recovery target from candidates (the same set
// registry.CandidatesFor returned for the original request), excluding
// failedAgent and preferring an agent whose type differs from failedType
// to avoid a correlated failure repeating immediately (spec §4.10 steps
// 1-2). ok is false if no candidate remains (step 3, NoRecovery).
func Plan(candidates []types.Agent, failedAgent string, failedType types.AgentType) (agent types.Agent, ok bool) {
	var sameType, otherType types.Agent

	for _, a := range candidates {
		if a.Name() == failedAgent {
			continue
		}
		if a.Type() == failedType {
			if sameType == nil {
				sameType = a
			}
			continue
		}
		if otherType == nil {
			otherType = a
		}
	}

	if otherType != nil {
		return otherType, true
	}
	if sameType != nil {
		return sameType, true
	}
	return nil, false
}
