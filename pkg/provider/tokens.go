package provider

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter provides approximate token counting for providers whose
// responses omit usage accounting (spec §4.7).
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter builds a counter for modelID. Every known chat model is
// close enough in tokenization to GPT-4's encoding for estimation purposes,
// so unrecognized model IDs fall back to it rather than erroring.
func NewTokenCounter(modelID string) (*TokenCounter, error) {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return nil, fmt.Errorf("token counter for %s: %w", modelID, err)
	}
	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the estimated token count of text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc.codec == nil {
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// EstimateUsage fills in InputTokens/OutputTokens on resp when the
// provider left them zero, using prompt and the completion content.
func (tc *TokenCounter) EstimateUsage(prompt string, resp *CompletionResponse) {
	if resp.InputTokens == 0 {
		resp.InputTokens = tc.CountTokens(prompt)
	}
	if resp.OutputTokens == 0 {
		resp.OutputTokens = tc.CountTokens(resp.Content)
	}
}
