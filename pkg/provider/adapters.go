package provider

import (
	"context"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/anthropic"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/google"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/ollama"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/openai"
)

// The adapters below translate between pkg/provider's CompletionRequest/
// CompletionResponse and each internal/<name> package's local copy of the
// same shape. The duplication is deliberate (see internal/*/client.go) to
// keep those packages import-cycle-free of pkg/provider; these adapters
// are the one place that pays the conversion cost.

type anthropicAdapter struct{ inner *anthropic.Client }

func (a *anthropicAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := a.inner.Complete(ctx, anthropic.CompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	return CompletionResponse{Content: resp.Content, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}, err
}

func (a *anthropicAdapter) TestConnection(ctx context.Context) error {
	return a.inner.TestConnection(ctx)
}

type openaiAdapter struct{ inner *openai.Client }

func (a *openaiAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := a.inner.Complete(ctx, openai.CompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	return CompletionResponse{Content: resp.Content, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}, err
}

func (a *openaiAdapter) TestConnection(ctx context.Context) error {
	return a.inner.TestConnection(ctx)
}

type ollamaAdapter struct{ inner *ollama.Client }

func (a *ollamaAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := a.inner.Complete(ctx, ollama.CompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	return CompletionResponse{Content: resp.Content, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}, err
}

func (a *ollamaAdapter) TestConnection(ctx context.Context) error {
	return a.inner.TestConnection(ctx)
}

type googleAdapter struct{ inner *google.Client }

func (a *googleAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	resp, err := a.inner.Complete(ctx, google.CompletionRequest{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	return CompletionResponse{Content: resp.Content, InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}, err
}

func (a *googleAdapter) TestConnection(ctx context.Context) error {
	return a.inner.TestConnection(ctx)
}
