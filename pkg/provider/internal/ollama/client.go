// Package ollama is the local-runtime fast-path adapter for pkg/provider
// (spec §4.7): a thin wrapper over the Ollama API client for models
// configured with Provider == "ollama".
package ollama

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Client wraps the Ollama API client for a single configured model.
type Client struct {
	sdk     *api.Client
	modelID string
}

// CompletionRequest/CompletionResponse mirror pkg/provider's types; kept
// local to avoid an import cycle.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
}

// CompletionResponse is the normalized result of a completion call.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// New builds an Ollama adapter for model. model.Endpoint is the server's
// base URL, e.g. "http://localhost:11434".
func New(model types.ModelInfo) *Client {
	parsed, err := url.Parse(model.Endpoint)
	if err != nil || model.Endpoint == "" {
		parsed, _ = url.Parse("http://localhost:11434") //nolint:errcheck // fixed fallback literal always parses
	}
	return &Client{
		sdk:     api.NewClient(parsed, http.DefaultClient),
		modelID: model.ModelID,
	}
}

// Complete sends a single-turn, non-streaming chat request.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	stream := false
	messages := []api.Message{}
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	chatReq := &api.ChatRequest{
		Model:    c.modelID,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := c.sdk.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return CompletionResponse{}, types.NewError(types.KindTransient, "provider.ollama.Complete", err)
	}

	return CompletionResponse{
		Content:      response.Message.Content,
		InputTokens:  response.PromptEvalCount,
		OutputTokens: response.EvalCount,
	}, nil
}

// TestConnection performs a minimal completion to verify the local
// runtime is reachable and the model is loaded.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Complete(ctx, CompletionRequest{Prompt: "ping", MaxTokens: 1})
	return err
}
