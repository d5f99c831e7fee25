// Package orchestrator implements the request dispatcher (spec §4.4, C4):
// the single entry point that validates a request, optionally routes it
// through a workflow or intent router, selects and ranks a candidate
// agent from the registry, dispatches under the circuit breaker and
// concurrency governor with retry/backoff, and falls back to the Recovery
// Planner on exhausted failure. Grounded on the teacher's agent-factory
// dispatch loop (pkg/agent/factory.go), generalized to the spec's
// registry/governor/recovery collaborators instead of the teacher's fixed
// LLM client chain.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/circuit"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/retry"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/governor"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/recovery"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/registry"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// workflowMarkers are the prompt substrings that opt a request into
// workflow execution absent an explicit context flag (spec §4.4 step 2).
var workflowMarkers = [...]string{"multi-step", "workflow"} //nolint:gochecknoglobals // fixed detection set, not configuration

// extensionHeuristics maps a request's file extension to the agent type
// most likely able to handle it (spec §4.4 step 4b).
//
//nolint:gochecknoglobals // fixed heuristic table, not mutable configuration
var extensionHeuristics = map[string]types.AgentType{
	".cs":  types.AgentTypeCSharp,
	".py":  types.AgentTypePython,
	".js":  types.AgentTypeJavaScript,
	".ts":  types.AgentTypeJavaScript,
	".jsx": types.AgentTypeJavaScript,
	".tsx": types.AgentTypeJavaScript,
}

// keywordHeuristics maps a prompt keyword to the agent type it suggests
// when no file extension is present (spec §4.4 step 4b).
//
//nolint:gochecknoglobals // fixed heuristic table, not mutable configuration
var keywordHeuristics = map[string]types.AgentType{
	"fix":      types.AgentTypeFixer,
	"refactor": types.AgentTypeRefactor,
	"validate": types.AgentTypeValidator,
}

// minRoutingConfidence is the threshold an IntentRouter's RoutingDecision
// must clear to override candidate ranking (spec §4.4 step 3).
const minRoutingConfidence = 0.5

// dispatchRetryConfig is the dispatch loop's own backoff budget (spec
// §4.3): 3 attempts, 1s initial delay, 30s cap, with retry.Policy's
// jitter of ±10% of each delay (not full jitter). This is
// deliberately distinct from retry.DefaultConfig (5 attempts), which
// governs provider/MCP call retries one layer down, not agent dispatch.
//
//nolint:gochecknoglobals // fixed policy constant, not mutable configuration
var dispatchRetryConfig = retry.Config{
	MaxAttempts:   3,
	InitialDelay:  time.Second,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// Orchestrator is the Dispatcher (spec §4.4). The zero value is not
// usable; construct with New.
type Orchestrator struct {
	registry *registry.Registry
	governor *governor.Governor
	logger   *logx.Logger
	workflow types.WorkflowRunner

	maxRetries  int
	retryPolicy *retry.Policy
	breakerCfg  circuit.Config

	breakersMu sync.Mutex
	breakers   map[string]circuit.Breaker
}

// New builds an Orchestrator wired to reg and gov. workflow may be nil to
// disable workflow delegation (step 2 then falls through to normal
// dispatch).
func New(reg *registry.Registry, gov *governor.Governor, workflow types.WorkflowRunner) *Orchestrator {
	return &Orchestrator{
		registry:    reg,
		governor:    gov,
		logger:      logx.NewLogger("orchestrator"),
		workflow:    workflow,
		maxRetries:  dispatchRetryConfig.MaxAttempts,
		retryPolicy: retry.NewPolicy(dispatchRetryConfig, retry.ShouldRetry),
		breakerCfg:  circuit.DefaultConfig,
		breakers:    make(map[string]circuit.Breaker),
	}
}

// ProcessRequest runs the full dispatch pipeline (spec §4.4).
func (o *Orchestrator) ProcessRequest(ctx context.Context, req *types.Request) (*types.Result, error) {
	start := time.Now()

	// 1. Validate.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return cancelledResult(start), nil
	}

	// 2. Workflow detection.
	if o.wantsWorkflow(req) && o.workflow != nil {
		return o.workflow.ExecuteWorkflow(ctx, req)
	}

	// 3. Intent routing (optional).
	var routing *types.RoutingDecision
	preferredType := req.PreferredAgentType
	preferredName := ""
	if router := o.intentRouter(); router != nil {
		result, err := router.Handle(ctx, req)
		if err == nil && result != nil {
			if decision, ok := result.Metadata["RoutingDecision"].(*types.RoutingDecision); ok {
				routing = decision
				if decision.Confidence >= minRoutingConfidence {
					preferredName = decision.TargetAgent
					preferredType = decision.TargetAgentType
				}
			}
		}
	}

	// 4. Candidate selection.
	candidates := o.registry.CandidatesFor(req)
	if len(candidates) == 0 {
		return nil, types.NewError(types.KindNotFound, "orchestrator.ProcessRequest",
			errNoCandidates)
	}
	ranked := rankCandidates(candidates, preferredName, preferredType, req, o.registry)
	target := ranked[0]

	// 5. Dispatch under breaker, with retry/backoff against the same target.
	result, dispatchErr, attempts := o.dispatchLoop(ctx, target, req)
	if result != nil && result.Success {
		return o.finish(result, target, routing, attempts, false, start), nil
	}
	if types.KindOf(dispatchErr) == types.KindCancelled {
		return cancelledResult(start), nil
	}

	// 6. Recovery.
	altAgent, ok := recovery.Plan(candidates, target.Name(), target.Type())
	if !ok {
		o.logger.Warn("request %s: no recovery candidate after %q failed (%v)", req.ID, target.Name(), dispatchErr)
		if result == nil {
			result = &types.Result{Success: false, Exception: asTypesError(dispatchErr)}
		}
		return o.finish(result, target, routing, attempts, false, start), nil
	}
	o.logger.Info("request %s: recovering from %q to %q after %v", req.ID, target.Name(), altAgent.Name(), dispatchErr)

	if err := o.governor.Acquire(ctx); err != nil {
		return cancelledResult(start), nil
	}
	altResult, altErr := altAgent.Handle(ctx, req)
	o.governor.Release()
	o.registry.Touch(altAgent.Name())
	attempts++

	if altErr != nil {
		altResult = &types.Result{Success: false, Exception: asTypesError(altErr)}
	}
	if altResult.Success {
		return o.finish(altResult, altAgent, routing, attempts, true, start), nil
	}
	return o.finish(altResult, altAgent, routing, attempts, false, start), nil
}

// dispatchLoop runs step 5: up to o.maxRetries attempts against target,
// honoring the circuit breaker and concurrency governor each attempt.
func (o *Orchestrator) dispatchLoop(ctx context.Context, target types.Agent, req *types.Request) (*types.Result, error, int) {
	b := o.breakerFor(target.Name())
	var lastResult *types.Result
	var lastErr error

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindCancelled, "orchestrator.dispatchLoop", err), attempt - 1
		}

		if !b.Allow() {
			return nil, types.NewError(types.KindServiceUnavailable, "orchestrator.dispatchLoop", errBreakerOpen), attempt
		}

		if attempt > 1 {
			delay := o.retryPolicy.CalculateDelay(attempt)
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, types.NewError(types.KindCancelled, "orchestrator.dispatchLoop", ctx.Err()), attempt - 1
				case <-timer.C:
				}
			}
		}

		if err := o.governor.Acquire(ctx); err != nil {
			return nil, types.NewError(types.KindCancelled, "orchestrator.dispatchLoop", err), attempt - 1
		}
		result, err := target.Handle(ctx, req)
		o.governor.Release()
		o.registry.Touch(target.Name())

		success := err == nil && result != nil && result.Success
		b.Record(success)
		lastResult, lastErr = result, err

		if success {
			return result, nil, attempt
		}

		outcomeErr := err
		if outcomeErr == nil && result != nil && result.Exception != nil {
			outcomeErr = result.Exception
		}
		if !o.retryPolicy.ShouldRetry(outcomeErr) {
			return lastResult, outcomeErr, attempt
		}
	}

	return lastResult, lastErr, o.maxRetries
}

// wantsWorkflow implements spec §4.4 step 2's detection rule.
func (o *Orchestrator) wantsWorkflow(req *types.Request) bool {
	if v, ok := req.Context["UseWorkflow"].(bool); ok && v {
		return true
	}
	lower := strings.ToLower(req.Prompt)
	for _, marker := range workflowMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// intentRouter returns the registered IntentRouter agent, if any.
func (o *Orchestrator) intentRouter() types.Agent {
	routers := o.registry.ByType(types.AgentTypeIntentRoute)
	if len(routers) == 0 {
		return nil
	}
	return routers[0]
}

// breakerFor returns the per-agent circuit breaker, creating one on first
// use. Breakers are keyed by agent name since each agent is an
// independent downstream dependency.
func (o *Orchestrator) breakerFor(name string) circuit.Breaker {
	o.breakersMu.Lock()
	defer o.breakersMu.Unlock()

	b, ok := o.breakers[name]
	if !ok {
		b = circuit.New(o.breakerCfg)
		o.breakers[name] = b
	}
	return b
}

func (o *Orchestrator) finish(result *types.Result, agent types.Agent, routing *types.RoutingDecision, attempts int, isRecovery bool, start time.Time) *types.Result {
	result.AgentName = agent.Name()
	result.ProcessingTime = time.Since(start)
	result.WithMetadata("agentType", agent.Type()).
		WithMetadata("processingTime", result.ProcessingTime).
		WithMetadata("attempts", attempts)
	if routing != nil {
		result.WithMetadata("routingDecision", routing)
	}
	if isRecovery {
		result.WithMetadata("IsRecoveryResult", true)
	}
	return result
}

func cancelledResult(start time.Time) *types.Result {
	return &types.Result{
		Success:        false,
		ProcessingTime: time.Since(start),
		Exception:      types.NewError(types.KindCancelled, "orchestrator.ProcessRequest", context.Canceled),
	}
}

func asTypesError(err error) *types.Error {
	if err == nil {
		return nil
	}
	if te, ok := err.(*types.Error); ok { //nolint:errorlint // classification lookup, not error-chain walking
		return te
	}
	return types.NewError(types.KindInternal, "orchestrator.dispatchLoop", err)
}
