// Package breaker provides the resilience middleware chain (spec §4.3):
// circuit breaking, retry with backoff, and per-call timeout, composed
// around any request/response pair via Go generics. This generalizes the
// teacher's LLMClient-specific Chain/WrapClient idiom to wrap any
// call shape — an Agent.Handle, a provider Complete, an MCP invocation.
package breaker

import "context"

// Call is a single request/response operation, e.g. Agent.Handle or a
// provider's Complete method.
type Call[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Middleware wraps a Call with additional behavior (circuit breaking,
// retry, timeout, …). Middlewares compose via Chain.
type Middleware[Req, Resp any] func(next Call[Req, Resp]) Call[Req, Resp]

// Chain composes middlewares around base. Chain(base, mw1, mw2, mw3)
// produces the call stack mw1 -> mw2 -> mw3 -> base: mw1 runs first and
// can short-circuit before mw2, mw3, and base ever run.
func Chain[Req, Resp any](base Call[Req, Resp], middlewares ...Middleware[Req, Resp]) Call[Req, Resp] {
	call := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		call = middlewares[i](call)
	}
	return call
}
