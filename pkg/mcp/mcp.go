// Package mcp implements the MCP (Model Context Protocol) client (spec
// §4.8): a set of external tool servers reached over JSON-RPC 2.0 on
// HTTP, with heartbeat-driven liveness and auto-reconnect.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cronlib "github.com/robfig/cron/v3"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// heartbeatStaleFactor is the "2 ·" in spec §4.8: a server is due for a
// heartbeat probe once this many keepAliveIntervals have passed silently.
const heartbeatStaleFactor = 2

// maxReconnectAttempts bounds the heartbeat task's retry-on-failure loop
// before giving up and marking a server disconnected (spec §4.8:
// "on repeated failure, mark disconnected").
const maxReconnectAttempts = 3

// Response is the normalized result of SendRequest (spec §4.8): timeouts
// and HTTP errors translate into Success=false with Err populated rather
// than a Go error, mirroring the provider client's response shape.
type Response struct {
	Success bool
	Result  json.RawMessage
	Err     *RPCError
}

// RPCError mirrors a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// serverEntry is one configured server's live connection state.
type serverEntry struct {
	info          types.MCPServerInfo
	lastHeartbeat time.Time
	failureCount  int
}

// snapshot is an immutable view of the configured servers, swapped in
// wholesale on every mutation (same copy-on-write idiom as pkg/registry).
type snapshot struct {
	byID map[string]*serverEntry
}

func (s *snapshot) copy() *snapshot {
	next := &snapshot{byID: make(map[string]*serverEntry, len(s.byID)+1)}
	for k, v := range s.byID {
		next.byID[k] = v
	}
	return next
}

type atomicSnapshot struct {
	value atomic.Pointer[snapshot]
}

func (a *atomicSnapshot) Load() *snapshot {
	return a.value.Load()
}

func (a *atomicSnapshot) Store(s *snapshot) {
	a.value.Store(s)
}

// Manager is the MCP client (spec §4.8). The zero value is not usable;
// construct with New.
type Manager struct {
	mu         sync.Mutex // guards mutation; readers use the atomic snapshot
	current    atomicSnapshot
	bus        *eventbus.Bus
	logger     *logx.Logger
	httpClient *http.Client
	cron       *cronlib.Cron
}

// New builds an empty Manager. bus may be nil to disable event
// publication.
func New(bus *eventbus.Bus) *Manager {
	m := &Manager{
		bus:        bus,
		logger:     logx.NewLogger("mcp"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	m.current.Store(&snapshot{byID: make(map[string]*serverEntry)})
	return m
}

// AddServer registers server in a disconnected state. Call Connect to
// bring it up.
func (m *Manager) AddServer(server types.MCPServerInfo) error {
	if server.ID == "" {
		return types.NewError(types.KindInvalidArgument, "mcp.AddServer", fmt.Errorf("server id is required"))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.current.Load()
	if _, exists := cur.byID[server.ID]; exists {
		return types.NewError(types.KindAlreadyExists, "mcp.AddServer",
			fmt.Errorf("server %q already registered", server.ID))
	}

	server.IsConnected = false
	next := cur.copy()
	next.byID[server.ID] = &serverEntry{info: server}
	m.current.Store(next)
	return nil
}

// RemoveServer unregisters id.
func (m *Manager) RemoveServer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.current.Load()
	if _, exists := cur.byID[id]; !exists {
		return types.NewError(types.KindNotFound, "mcp.RemoveServer", fmt.Errorf("server %q not registered", id))
	}
	next := cur.copy()
	delete(next.byID, id)
	m.current.Store(next)
	return nil
}

// Connect probes id with a JSON-RPC "ping" and accepts 2xx or 400 as
// reachable (spec §4.8), recording lastHeartbeat and marking connected.
func (m *Manager) Connect(ctx context.Context, id string) error {
	cur := m.current.Load()
	entry, exists := cur.byID[id]
	if !exists {
		return types.NewError(types.KindNotFound, "mcp.Connect", fmt.Errorf("server %q not registered", id))
	}

	tools, reachable := m.probe(ctx, entry.info)
	m.setConnected(id, reachable, tools)
	if !reachable {
		return types.NewError(types.KindServiceUnavailable, "mcp.Connect",
			fmt.Errorf("server %q unreachable", id))
	}
	return nil
}

// Disconnect marks id as not connected without removing its registration.
func (m *Manager) Disconnect(id string) error {
	cur := m.current.Load()
	if _, exists := cur.byID[id]; !exists {
		return types.NewError(types.KindNotFound, "mcp.Disconnect", fmt.Errorf("server %q not registered", id))
	}
	m.setConnected(id, false, nil)
	return nil
}

// setConnected updates a server's connection state and publishes
// ServerStatusChanged on transition. A successful connect resets the
// failure streak and, when tools is non-empty, records it as the
// server's SupportedTools (populated from the probe's ping response,
// spec §4.8). The caller is responsible for incrementing the failure
// streak on probe failure via recordFailure before calling this with
// false.
func (m *Manager) setConnected(id string, connected bool, tools []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current.Load()
	e, ok := cur.byID[id]
	if !ok {
		return
	}
	changed := e.info.IsConnected != connected

	next := cur.copy()
	updated := *e
	updated.info.IsConnected = connected
	if connected {
		updated.lastHeartbeat = time.Now()
		updated.failureCount = 0
		if len(tools) > 0 {
			updated.info.SupportedTools = tools
		}
	}
	next.byID[id] = &updated
	m.current.Store(next)

	if changed && m.bus != nil {
		m.bus.Publish(eventbus.TopicServerStatus, map[string]any{"id": id, "connected": connected})
	}
}

// recordFailure increments id's consecutive-failure streak and returns
// the new count, without touching its connected state.
func (m *Manager) recordFailure(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.current.Load()
	e, ok := cur.byID[id]
	if !ok {
		return 0
	}
	next := cur.copy()
	updated := *e
	updated.failureCount++
	next.byID[id] = &updated
	m.current.Store(next)
	return updated.failureCount
}

// pingResult is the subset of a "ping" response this client understands.
// Servers that advertise their tool catalog on ping populate result.tools;
// servers that don't leave it empty and probe simply reports reachability.
type pingResult struct {
	Tools []string `json:"tools"`
}

// probe sends a minimal JSON-RPC "ping" to server and treats 2xx or 400
// as reachable (spec §4.8, same rule the provider client uses for
// TestConnection). When the response carries a result.tools array, probe
// returns it so the caller can record it against the server's
// SupportedTools.
func (m *Manager) probe(ctx context.Context, server types.MCPServerInfo) ([]string, bool) {
	raw, statusCode, err := m.post(ctx, server, "ping", nil)
	if err != nil {
		return nil, false
	}
	if statusCode != http.StatusBadRequest && (statusCode < 200 || statusCode >= 300) {
		return nil, false
	}

	var result pingResult
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &result) // malformed/absent tools list just means none reported
	}
	return result.Tools, true
}

// SendRequest dispatches method/params to the first connected server
// (spec §4.8: "selects the first connected server (future: selection by
// tool capability)"). Timeouts and HTTP errors translate to
// Response{Success:false}, not a Go error, matching the spec's response
// contract; a Go error is returned only when no server is connected at
// all.
func (m *Manager) SendRequest(ctx context.Context, method string, params any) (Response, error) {
	server, ok := m.firstConnected()
	if !ok {
		return Response{}, types.NewError(types.KindServiceUnavailable, "mcp.SendRequest",
			fmt.Errorf("no connected MCP server"))
	}

	raw, statusCode, err := m.post(ctx, server, method, params)
	if err != nil {
		return Response{Success: false, Err: &RPCError{Message: err.Error()}}, nil
	}
	if statusCode < 200 || statusCode >= 300 {
		return Response{Success: false, Err: &RPCError{Code: statusCode, Message: fmt.Sprintf("http status %d", statusCode)}}, nil
	}

	var decoded rpcResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Response{Success: false, Err: &RPCError{Message: fmt.Sprintf("decode response: %v", err)}}, nil
	}
	if decoded.Error != nil {
		return Response{Success: false, Err: decoded.Error}, nil
	}
	return Response{Success: true, Result: decoded.Result}, nil
}

func (m *Manager) firstConnected() (types.MCPServerInfo, bool) {
	cur := m.current.Load()
	for _, e := range cur.byID {
		if e.info.IsConnected {
			return e.info, true
		}
	}
	return types.MCPServerInfo{}, false
}

// post frames a JSON-RPC 2.0 request and POSTs it to server.Endpoint,
// attaching Bearer auth and custom headers when configured.
func (m *Manager) post(ctx context.Context, server types.MCPServerInfo, method string, params any) (json.RawMessage, int, error) {
	reqBody := rpcRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: params}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal mcp request: %w", err)
	}

	timeout := time.Duration(server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, server.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("build mcp request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if server.RequiresAuth && server.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+server.APIKey)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("mcp request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read mcp response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// RunHeartbeat probes every connected server whose heartbeat has gone
// stale (spec §4.8): more than 2·keepAliveInterval since lastHeartbeat.
// On probe failure with AutoReconnect set, the server's consecutive-
// failure streak is tracked across heartbeat cycles; once it reaches
// maxReconnectAttempts the server is marked disconnected and
// ServerStatusChanged is published. Without AutoReconnect, a single
// failed probe disconnects it immediately.
func (m *Manager) RunHeartbeat(ctx context.Context) {
	cur := m.current.Load()
	now := time.Now()

	for id, e := range cur.byID {
		if !e.info.IsConnected {
			continue
		}
		stale := e.info.KeepAliveInterval * heartbeatStaleFactor
		if stale <= 0 || now.Sub(e.lastHeartbeat) <= stale {
			continue
		}

		if tools, ok := m.probe(ctx, e.info); ok {
			m.setConnected(id, true, tools)
			continue
		}

		if !e.info.AutoReconnect {
			m.setConnected(id, false, nil)
			continue
		}

		if failures := m.recordFailure(id); failures >= maxReconnectAttempts {
			m.logger.Warn("mcp server %q failed %d consecutive heartbeats, marking disconnected", id, failures)
			m.setConnected(id, false, nil)
		}
	}
}

// Start begins automatic heartbeat polling on the given cron schedule
// (e.g. "@every 60s", spec §4.8). It is a no-op if schedule is empty.
func (m *Manager) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}
	m.cron = cronlib.New()
	_, err := m.cron.AddFunc(schedule, func() { m.RunHeartbeat(ctx) })
	if err != nil {
		return types.NewError(types.KindInvalidArgument, "mcp.Start", err)
	}
	m.cron.Start()
	return nil
}

// Stop halts automatic heartbeat polling started by Start.
func (m *Manager) Stop() {
	if m.cron != nil {
		stopCtx := m.cron.Stop()
		<-stopCtx.Done()
	}
}

// Servers returns every registered server's current info.
func (m *Manager) Servers() []types.MCPServerInfo {
	cur := m.current.Load()
	out := make([]types.MCPServerInfo, 0, len(cur.byID))
	for _, e := range cur.byID {
		out = append(out, e.info)
	}
	return out
}
