// Package google is the Gemini fast-path adapter for pkg/provider (spec
// §4.7): a thin wrapper over google.golang.org/genai for models
// configured with Provider == "google".
package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Client wraps the Gemini SDK client for a single configured model. The
// underlying genai.Client is created lazily on first use since its
// constructor requires a context.
type Client struct {
	sdk     *genai.Client
	apiKey  string
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

// New builds a Gemini adapter for model.
func New(model types.ModelInfo) *Client {
	return &Client{apiKey: model.APIKey, modelID: model.ModelID}
}

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	if c.sdk != nil {
		return c.sdk, nil
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, types.NewError(types.KindTransient, "provider.google.client", err)
	}
	c.sdk = sdk
	return sdk, nil
}

// Complete sends a single-turn completion request to Gemini.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	sdk, err := c.client(ctx)
	if err != nil {
		return CompletionResponse{}, err
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: req.Prompt}}, Role: "user"},
	}

	temp := req.Temperature
	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxTokens), //nolint:gosec // MaxTokens validated at config-load time
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}

	result, err := sdk.Models.GenerateContent(ctx, c.modelID, contents, genConfig)
	if err != nil {
		return CompletionResponse{}, types.NewError(types.KindTransient, "provider.google.Complete", err)
	}
	if result == nil {
		return CompletionResponse{}, types.NewError(types.KindTransient, "provider.google.Complete",
			errEmptyResponse)
	}

	resp := CompletionResponse{Content: result.Text()}
	if result.UsageMetadata != nil {
		resp.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		resp.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}
	return resp, nil
}

// TestConnection performs a minimal completion to verify reachability
// and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Complete(ctx, CompletionRequest{Prompt: "ping", MaxTokens: 1})
	return err
}

var errEmptyResponse = emptyErr("empty response from Gemini API")

type emptyErr string

func (e emptyErr) Error() string { return string(e) }
