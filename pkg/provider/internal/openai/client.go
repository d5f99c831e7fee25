// Package openai is the OpenAI fast-path adapter for pkg/provider (spec
// §4.7): a thin wrapper over the official openai-go Responses API for
// models configured with Provider == "openai".
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Client wraps the official OpenAI SDK client for a single configured model.
type Client struct {
	sdk     openai.Client
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

// New builds an OpenAI adapter for model.
func New(model types.ModelInfo) *Client {
	sdk := openai.NewClient(option.WithAPIKey(model.APIKey))
	return &Client{sdk: sdk, modelID: model.ModelID}
}

// Complete sends a single-turn completion request to the Responses API.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	input := req.Prompt
	if req.SystemPrompt != "" {
		input = req.SystemPrompt + "\n\n" + req.Prompt
	}

	params := responses.ResponseNewParams{
		Model:           c.modelID,
		MaxOutputTokens: openai.Int(int64(req.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(input)},
	}

	resp, err := c.sdk.Responses.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, types.NewError(types.KindTransient, "provider.openai.Complete", err)
	}

	content := resp.OutputText()
	return CompletionResponse{
		Content:      content,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// TestConnection performs a minimal completion to verify reachability
// and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Complete(ctx, CompletionRequest{Prompt: "ping", MaxTokens: 1})
	return err
}
