// Package registry implements the agent registry (spec §4.2): the
// authoritative map of registered Agents, their state and health, with
// periodic health polling and a lock-free read path for the dispatcher's
// hot loop.
package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// HealthChecker is implemented by agents that support an explicit health
// probe beyond their State (spec §4.2 step 2). Agents that don't implement
// it are polled by State alone.
type HealthChecker interface {
	CheckHealth(ctx context.Context) types.Health
}

// entry is one registered agent's current snapshot.
type entry struct {
	agent    types.Agent
	state    types.AgentState
	health   types.Health
	updated  time.Time
	lastUsed time.Time
}

// snapshot is an immutable view of the registry, swapped in wholesale on
// every mutation so readers never block on registration churn.
type snapshot struct {
	byName map[string]*entry
}

// Registry is the agent registry (spec §4.2). The zero value is not usable;
// construct with New.
type Registry struct {
	mu       sync.Mutex // guards mutation; readers use the atomic snapshot
	current  atomicSnapshot
	bus      *eventbus.Bus
	logger   *logx.Logger
	cron     *cronlib.Cron
	pollSpec string
}

// atomicSnapshot is a small atomic-pointer wrapper around *snapshot,
// mirroring the teacher's immutable-registry-plus-RWMutex pattern but
// lock-free for readers on the hot path.
type atomicSnapshot struct {
	value atomic.Pointer[snapshot]
}

func (a *atomicSnapshot) Load() *snapshot {
	return a.value.Load()
}

func (a *atomicSnapshot) Store(s *snapshot) {
	a.value.Store(s)
}

// New builds an empty Registry. bus may be nil to disable event
// publication. Automatic health polling begins only when Start is called
// with a schedule (callers may still invoke RunHealthChecks manually).
func New(bus *eventbus.Bus) *Registry {
	r := &Registry{
		bus:    bus,
		logger: logx.NewLogger("registry"),
	}
	r.current.Store(&snapshot{byName: make(map[string]*entry)})
	return r
}

// Register calls agent.Init and, if it succeeds, adds agent to the
// registry in AgentRunning state; a failed Init leaves the registry
// unchanged. It is an error to register a name that already exists
// (spec §4.2 step 1).
func (r *Registry) Register(ctx context.Context, agent types.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	if _, exists := cur.byName[agent.Name()]; exists {
		return types.NewError(types.KindAlreadyExists, "registry.Register",
			fmt.Errorf("agent %q already registered", agent.Name()))
	}

	if err := agent.Init(ctx); err != nil {
		return types.NewError(types.KindInternal, "registry.Register", err)
	}

	next := cur.copy()
	next.byName[agent.Name()] = &entry{
		agent:   agent,
		state:   types.AgentRunning,
		health:  types.HealthUnknown,
		updated: time.Now(),
	}
	r.current.Store(next)

	if r.bus != nil {
		r.bus.Publish(eventbus.TopicAgentRegistered, map[string]any{"name": agent.Name(), "type": agent.Type()})
	}
	return nil
}

// Unregister removes name from the registry, shutting it down first
// (spec §4.2 step 1).
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	e, exists := cur.byName[name]
	if !exists {
		return types.NewError(types.KindNotFound, "registry.Unregister",
			fmt.Errorf("agent %q not registered", name))
	}

	next := cur.copy()
	delete(next.byName, name)
	r.current.Store(next)

	if err := e.agent.Shutdown(ctx); err != nil {
		r.logger.Warn("agent %q returned error on shutdown: %v", name, err)
	}

	if r.bus != nil {
		r.bus.Publish(eventbus.TopicAgentUnregistered, map[string]any{"name": name})
	}
	return nil
}

// Get returns the registered agent by name.
func (r *Registry) Get(name string) (types.Agent, bool) {
	cur := r.current.Load()
	e, ok := cur.byName[name]
	if !ok {
		return nil, false
	}
	return e.agent, true
}

// CandidatesFor returns every Running agent whose CanHandle(req) is true,
// in no particular order (spec §4.4 step 3 consumes this to rank by
// confidence).
func (r *Registry) CandidatesFor(req *types.Request) []types.Agent {
	cur := r.current.Load()
	out := make([]types.Agent, 0, len(cur.byName))
	for _, e := range cur.byName {
		if e.state == types.AgentRunning && e.agent.CanHandle(req) {
			out = append(out, e.agent)
		}
	}
	return out
}

// Touch records that name was just dispatched to, the dispatcher's
// least-recently-used tiebreaker input (spec §4.4 step 4c).
func (r *Registry) Touch(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	e, ok := cur.byName[name]
	if !ok {
		return
	}
	next := cur.copy()
	updated := *e
	updated.lastUsed = time.Now()
	next.byName[name] = &updated
	r.current.Store(next)
}

// LastUsedOf returns the last time Touch(name) was called, the zero time
// if never.
func (r *Registry) LastUsedOf(name string) time.Time {
	cur := r.current.Load()
	e, ok := cur.byName[name]
	if !ok {
		return time.Time{}
	}
	return e.lastUsed
}

// ByType returns every Running agent of the given type, regardless of
// CanHandle — used to locate singleton collaborators like an IntentRouter
// agent (spec §4.4 step 3) that aren't selected through CandidatesFor.
func (r *Registry) ByType(t types.AgentType) []types.Agent {
	cur := r.current.Load()
	out := make([]types.Agent, 0, 1)
	for _, e := range cur.byName {
		if e.state == types.AgentRunning && e.agent.Type() == t {
			out = append(out, e.agent)
		}
	}
	return out
}

// All returns every registered agent regardless of state.
func (r *Registry) All() []types.Agent {
	cur := r.current.Load()
	out := make([]types.Agent, 0, len(cur.byName))
	for _, e := range cur.byName {
		out = append(out, e.agent)
	}
	return out
}

// StateOf returns the current lifecycle state of name.
func (r *Registry) StateOf(name string) (types.AgentState, bool) {
	cur := r.current.Load()
	e, ok := cur.byName[name]
	if !ok {
		return "", false
	}
	return e.state, true
}

// HealthOf returns the last-polled health of name.
func (r *Registry) HealthOf(name string) (types.Health, bool) {
	cur := r.current.Load()
	e, ok := cur.byName[name]
	if !ok {
		return "", false
	}
	return e.health, true
}

// SetState transitions name to state, publishing AgentStatusChanged.
func (r *Registry) SetState(name string, state types.AgentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	e, ok := cur.byName[name]
	if !ok {
		return types.NewError(types.KindNotFound, "registry.SetState",
			fmt.Errorf("agent %q not registered", name))
	}

	next := cur.copy()
	updated := *e
	updated.state = state
	updated.updated = time.Now()
	next.byName[name] = &updated
	r.current.Store(next)

	if r.bus != nil {
		r.bus.Publish(eventbus.TopicAgentStatus, map[string]any{"name": name, "state": state})
	}
	return nil
}

// RunHealthChecks polls every registered HealthChecker agent once,
// updating its recorded health (spec §4.2 step 2).
func (r *Registry) RunHealthChecks(ctx context.Context) {
	cur := r.current.Load()
	for name, e := range cur.byName {
		checker, ok := e.agent.(HealthChecker)
		if !ok {
			continue
		}
		health := checker.CheckHealth(ctx)

		r.mu.Lock()
		latest := r.current.Load()
		if le, ok := latest.byName[name]; ok {
			next := latest.copy()
			updated := *le
			updated.health = health
			updated.updated = time.Now()
			next.byName[name] = &updated
			r.current.Store(next)
		}
		r.mu.Unlock()
	}
}

// Start begins automatic health polling on the given cron schedule
// (a standard 5-field expression or a descriptor such as "@every 30s";
// "@every" intervals below one second run once per second). It is a no-op if
// schedule is empty.
func (r *Registry) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		return nil
	}
	r.cron = cronlib.New()
	_, err := r.cron.AddFunc(schedule, func() { r.RunHealthChecks(ctx) })
	if err != nil {
		return types.NewError(types.KindInvalidArgument, "registry.Start", err)
	}
	r.pollSpec = schedule
	r.cron.Start()
	return nil
}

// Stop halts automatic health polling started by Start.
func (r *Registry) Stop() {
	if r.cron != nil {
		stopCtx := r.cron.Stop()
		<-stopCtx.Done()
	}
}

// copy returns a shallow copy of s with a fresh byName map, the
// copy-on-write step every mutation performs before swapping in.
func (s *snapshot) copy() *snapshot {
	next := &snapshot{byName: make(map[string]*entry, len(s.byName)+1)}
	for k, v := range s.byName {
		next.byName[k] = v
	}
	return next
}
