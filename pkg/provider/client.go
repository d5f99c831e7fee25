// Package provider implements the model-provider client (spec §4.7): a
// Manager normalizing heterogeneous LLM backends behind one interface.
// Known providers get a thin SDK-backed fast path; anything else falls
// back to a generic HTTP JSON prober that decodes whichever response
// shape the endpoint happens to return.
package provider

import "context"

// CompletionRequest is a single completion call against a configured
// model (spec §4.7).
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

// CompletionResponse is the normalized result of a completion call.
// InputTokens/OutputTokens are zero when the provider's response omits
// usage accounting; callers fall back to token estimation in that case.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// Client is implemented by every provider adapter — the SDK-backed fast
// paths and the generic HTTP prober alike.
type Client interface {
	// Complete sends req to the backing model and returns its normalized
	// response.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	// TestConnection performs a minimal round trip to verify the model
	// is reachable and credentials are valid (spec §4.7 ModelInfo.IsAvailable).
	TestConnection(ctx context.Context) error
}
