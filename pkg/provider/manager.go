package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/circuit"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/retry"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/timeout"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/limiter"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/anthropic"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/google"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/ollama"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/provider/internal/openai"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// registeredModel pairs a configured ModelInfo with its resilience-wrapped
// client, built once at AddModel time.
type registeredModel struct {
	info   types.ModelInfo
	client Client
}

// Manager is the C7 Model-Provider Client (spec §4.7): it holds every
// configured model, tracks which one is active, and routes SendRequest
// through the active model's resilience-wrapped client.
type Manager struct {
	mu           sync.RWMutex
	models       map[string]*registeredModel
	activeID     string
	bus          *eventbus.Bus
	logger       *logx.Logger
	breakerCfg   circuit.Config
	retryCfg     retry.Config
	tokenCounter *TokenCounter
	limiter      *limiter.Limiter
}

// NewManager builds an empty Manager. bus may be nil to disable event
// publication.
func NewManager(bus *eventbus.Bus) *Manager {
	counter, _ := NewTokenCounter("gpt-4") //nolint:errcheck // GPT4 codec load cannot fail at runtime
	return &Manager{
		models:       make(map[string]*registeredModel),
		bus:          bus,
		logger:       logx.NewLogger("provider"),
		breakerCfg:   circuit.DefaultConfig,
		retryCfg:     retry.DefaultConfig,
		tokenCounter: counter,
		limiter:      limiter.New(nil),
	}
}

// AddModel registers model and builds its resilience-wrapped client
// (spec §4.7). If no model is currently active, it becomes active.
func (m *Manager) AddModel(model types.ModelInfo) error {
	if model.ID == "" {
		return types.NewError(types.KindInvalidArgument, "provider.AddModel", fmt.Errorf("model id is required"))
	}

	base := m.newBaseClient(model)
	wrapped := m.wrapClient(base)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.models[model.ID]; exists {
		return types.NewError(types.KindAlreadyExists, "provider.AddModel",
			fmt.Errorf("model %q already registered", model.ID))
	}
	m.models[model.ID] = &registeredModel{info: model, client: wrapped}
	m.limiter.AddModel(model)
	if m.activeID == "" {
		m.activeID = model.ID
	}
	return nil
}

// RemoveModel unregisters id. Removing the active model clears the
// active selection; SendRequest then fails until SetActive is called or
// another model is added.
func (m *Manager) RemoveModel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.models[id]; !exists {
		return types.NewError(types.KindNotFound, "provider.RemoveModel", fmt.Errorf("model %q not registered", id))
	}
	delete(m.models, id)
	m.limiter.RemoveModel(id)
	if m.activeID == id {
		m.activeID = ""
	}
	return nil
}

// SetActive marks id as the active model, publishing ActiveModelChanged.
// id must pass TestConnection before it is committed (spec §4.7's
// "SetActive(m) followed by GetActive() returns m when m exists and
// passes the connection test"): a model that is registered but currently
// unreachable does not become active, and the previously active model
// (if any) is left in place.
func (m *Manager) SetActive(ctx context.Context, id string) error {
	m.mu.Lock()
	rm, exists := m.models[id]
	m.mu.Unlock()
	if !exists {
		return types.NewError(types.KindNotFound, "provider.SetActive", fmt.Errorf("model %q not registered", id))
	}

	err := rm.client.TestConnection(ctx)

	m.mu.Lock()
	rm.info.IsAvailable = err == nil
	if err != nil {
		m.mu.Unlock()
		return types.NewError(types.KindServiceUnavailable, "provider.SetActive",
			fmt.Errorf("model %q failed connection test: %w", id, err))
	}
	m.activeID = id
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(eventbus.TopicActiveModel, map[string]any{"modelId": id})
	}
	return nil
}

// GetActive returns the currently active model's info.
func (m *Manager) GetActive() (types.ModelInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeID == "" {
		return types.ModelInfo{}, types.NewError(types.KindServiceUnavailable, "provider.GetActive",
			fmt.Errorf("no active model configured"))
	}
	return m.models[m.activeID].info, nil
}

// TestConnection performs a minimal round trip against id to validate
// reachability and credentials, updating ModelInfo.IsAvailable/LastTested.
func (m *Manager) TestConnection(ctx context.Context, id string) error {
	m.mu.Lock()
	rm, exists := m.models[id]
	m.mu.Unlock()
	if !exists {
		return types.NewError(types.KindNotFound, "provider.TestConnection", fmt.Errorf("model %q not registered", id))
	}

	err := rm.client.TestConnection(ctx)

	m.mu.Lock()
	rm.info.IsAvailable = err == nil
	rm.info.LastTested = time.Now()
	m.mu.Unlock()
	return err
}

// SendRequest completes prompt against the active model, wrapped in
// circuit breaking, retry, timeout, and per-model throughput/connection
// limiting (spec §4.7).
func (m *Manager) SendRequest(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.RLock()
	if m.activeID == "" {
		m.mu.RUnlock()
		return CompletionResponse{}, types.NewError(types.KindServiceUnavailable, "provider.SendRequest",
			fmt.Errorf("no active model configured"))
	}
	rm := m.models[m.activeID]
	m.mu.RUnlock()

	// Throughput is bounded by the prompt plus the caller's requested
	// ceiling, since actual completion length isn't known until after
	// the call completes.
	estimatedTokens := m.tokenCounter.CountTokens(req.Prompt) + req.MaxTokens
	if err := m.limiter.Reserve(rm.info.ID, estimatedTokens); err != nil {
		return CompletionResponse{}, types.NewError(types.KindServiceUnavailable, "provider.SendRequest", err)
	}
	if err := m.limiter.ReserveConnection(rm.info.ID); err != nil {
		return CompletionResponse{}, types.NewError(types.KindServiceUnavailable, "provider.SendRequest", err)
	}
	defer func() {
		_ = m.limiter.ReleaseConnection(rm.info.ID)
	}()

	resp, err := rm.client.Complete(ctx, req)
	if err != nil {
		m.logger.Warn("completion failed for model %q: %v (prompt: %s)", rm.info.ID, err, sanitizePrompt(req.Prompt, promptLogMaxChars))
		return resp, err
	}
	if resp.InputTokens == 0 || resp.OutputTokens == 0 {
		m.tokenCounter.EstimateUsage(req.Prompt, &resp)
	}
	return resp, nil
}

// Close releases the Manager's background resources (the limiter's daily
// reset timer).
func (m *Manager) Close() {
	m.limiter.Close()
}

// promptLogMaxChars bounds how much of a failed prompt is logged verbatim
// before sanitizePrompt truncates it to a head/tail + hash.
const promptLogMaxChars = 2000

// newBaseClient picks the SDK-backed fast path for known providers,
// falling back to the generic HTTP prober otherwise (spec §4.7).
func (m *Manager) newBaseClient(model types.ModelInfo) Client {
	switch model.Provider {
	case "anthropic":
		return &anthropicAdapter{inner: anthropic.New(model)}
	case "openai":
		return &openaiAdapter{inner: openai.New(model)}
	case "ollama":
		return &ollamaAdapter{inner: ollama.New(model)}
	case "google":
		return &googleAdapter{inner: google.New(model)}
	default:
		return newGenericClient(model)
	}
}

// wrapClient composes the resilience chain around base in the teacher's
// order (circuit outermost, then retry, then timeout innermost, spec
// §4.3): the breaker records one outcome per SendRequest call, counting a
// retry-exhausted failure once rather than once per attempt.
func (m *Manager) wrapClient(base Client) Client {
	call := breaker.Call[CompletionRequest, CompletionResponse](
		func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
			return base.Complete(ctx, req)
		},
	)

	b := circuit.New(m.breakerCfg)
	policy := retry.NewPolicy(m.retryCfg, nil)

	chained := breaker.Chain(call,
		circuit.Middleware[CompletionRequest, CompletionResponse](b),
		retry.Middleware[CompletionRequest, CompletionResponse](policy, m.logger),
		timeout.Middleware[CompletionRequest, CompletionResponse](defaultCallTimeout),
	)

	return &chainedClient{call: chained, base: base}
}

const defaultCallTimeout = 60 * time.Second

// chainedClient adapts the resilience-wrapped Call back into the Client
// interface; TestConnection bypasses the chain since it's a cheap probe
// the breaker shouldn't count against the model's failure budget.
type chainedClient struct {
	call breaker.Call[CompletionRequest, CompletionResponse]
	base Client
}

func (c *chainedClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return c.call(ctx, req)
}

func (c *chainedClient) TestConnection(ctx context.Context) error {
	return c.base.TestConnection(ctx)
}
