// Package anthropic is the Anthropic Claude fast-path adapter for
// pkg/provider (spec §4.7): a thin wrapper over anthropic-sdk-go for
// models configured with Provider == "anthropic".
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Client wraps the Anthropic SDK client for a single configured model.
type Client struct {
	sdk     anthropic.Client
	modelID string
}

// CompletionRequest/CompletionResponse mirror pkg/provider's types; kept
// local to avoid an import cycle (pkg/provider constructs this adapter).
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

// New builds a Claude adapter for model. Retries are handled by
// pkg/breaker, not the SDK, so the SDK's own retry loop is disabled.
func New(model types.ModelInfo) *Client {
	sdk := anthropic.NewClient(
		option.WithAPIKey(model.APIKey),
		option.WithMaxRetries(0),
	)
	return &Client{sdk: sdk, modelID: model.ModelID}
}

// Complete sends a single-turn completion request to Claude.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	params := anthropic.MessageNewParams{
		Model: anthropic.Model(c.modelID),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := c.sdk.Messages.New(ctx, params)
	if err != nil {
		return CompletionResponse{}, classify(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return CompletionResponse{}, types.NewError(types.KindTransient, "provider.anthropic.Complete", errEmptyResponse)
	}

	var text string
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	return CompletionResponse{
		Content:      text,
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

var errEmptyResponse = errEmpty("received empty content from Claude API")

type errEmpty string

func (e errEmpty) Error() string { return string(e) }

func classify(err error) *types.Error {
	return types.NewError(types.KindTransient, "provider.anthropic.Complete", err)
}
