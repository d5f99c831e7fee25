package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// genericClient is the provider-neutral fallback adapter (spec §4.7): it
// POSTs a minimal OpenAI-chat-shaped body to Endpoint and probes the JSON
// response in the fixed order the spec names, since custom/local
// endpoints rarely agree on a response envelope.
type genericClient struct {
	model      types.ModelInfo
	httpClient *http.Client
}

// newGenericClient builds the fallback adapter for any ModelInfo.Provider
// value not covered by a dedicated SDK adapter.
func newGenericClient(model types.ModelInfo) Client {
	timeout := time.Duration(model.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &genericClient{
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *genericClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body := map[string]any{
		"model": c.model.ModelID,
		"messages": []map[string]string{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.Prompt},
		},
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		return CompletionResponse{}, err
	}

	content, err := probeContent(raw)
	if err != nil {
		return CompletionResponse{}, err
	}
	return CompletionResponse{Content: content}, nil
}

// TestConnection sends a tiny probe and treats 2xx or 400 as "endpoint
// alive" (spec §4.7) — 400 proves the server exists but rejected the
// payload, which is still a reachable endpoint.
func (c *genericClient) TestConnection(ctx context.Context) error {
	body := map[string]any{
		"model": c.model.ModelID,
		"messages": []map[string]string{
			{"role": "user", "content": "ping"},
		},
		"max_tokens": 1,
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return types.NewError(types.KindInvalidArgument, "provider.generic.TestConnection", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.model.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return types.NewError(types.KindInvalidArgument, "provider.generic.TestConnection", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.model.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.model.APIKey)
	}
	for k, v := range c.model.CustomHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return types.NewError(types.KindTransient, "provider.generic.TestConnection", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path
	_, _ = io.Copy(io.Discard, resp.Body)

	if (resp.StatusCode >= 200 && resp.StatusCode < 300) || resp.StatusCode == http.StatusBadRequest {
		return nil
	}
	return classifyHTTPStatus(resp.StatusCode, "", fmt.Errorf("status %d", resp.StatusCode))
}

func (c *genericClient) post(ctx context.Context, body map[string]any) (map[string]any, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewError(types.KindInvalidArgument, "provider.generic.post", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.model.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, types.NewError(types.KindInvalidArgument, "provider.generic.post", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.model.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.model.APIKey)
	}
	for k, v := range c.model.CustomHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.KindTransient, "provider.generic.post", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.KindTransient, "provider.generic.post", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyHTTPStatus(resp.StatusCode, string(rawBody), fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded map[string]any
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return nil, types.NewError(types.KindInternal, "provider.generic.post", fmt.Errorf("decode response: %w", err))
	}
	return decoded, nil
}

// probeContent decodes raw in the fixed order the spec names: OpenAI-style
// choices[0].message.content, legacy choices[0].text, a bare "response"
// field, then a bare "content" field. The first shape that matches wins.
func probeContent(raw map[string]any) (string, error) {
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
			if text, ok := choice["text"].(string); ok {
				return text, nil
			}
		}
	}
	if response, ok := raw["response"].(string); ok {
		return response, nil
	}
	if content, ok := raw["content"].(string); ok {
		return content, nil
	}
	return "", types.NewError(types.KindInternal, "provider.generic.probeContent",
		fmt.Errorf("no recognized content field in response"))
}
