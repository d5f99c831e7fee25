// Package governor implements the concurrency governor (spec §4.5): a
// fixed-capacity counting semaphore bounding concurrent agent dispatches,
// with a control loop that auto-tunes capacity against observed queue
// throughput. Grounded on pkg/limiter's mutex-guarded counter idiom,
// generalized from a per-model agent cap to a single process-wide bound,
// and on pkg/registry's cron-scheduled background loop.
package governor

import (
	"context"
	"runtime"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// targetThroughputPerMinute is T* from spec §4.5.
const targetThroughputPerMinute = 60.0

// defaultTuneSchedule matches the spec's "every 30s" auto-tuning cadence.
const defaultTuneSchedule = "@every 30s"

// ThroughputSource reports the measured throughput the auto-tuning loop
// compares against target. pkg/queue.Queue.Stats().ThroughputPerMin
// satisfies this via the ThroughputPerMinute adapter method callers wire in.
type ThroughputSource interface {
	ThroughputPerMinute() float64
}

// Governor is the fixed-capacity semaphore bounding concurrent agent
// executions (spec §4.5, C5). The zero value is not usable; construct
// with New. Capacity changes take effect on the next Acquire/Release; the
// auto-tune loop never blocks a caller already waiting on one.
type Governor struct {
	mu            sync.Mutex
	sem           chan struct{} // one buffered slot per unit of current capacity
	capacity      int
	pendingShrink int // permits to withdraw permanently on the next Release

	minCap, maxCap int

	source ThroughputSource
	bus    *eventbus.Bus
	logger *logx.Logger
	cron   *cronlib.Cron
}

// New builds a Governor with initial capacity 2*CPU, floor CPU, and
// ceiling 4*CPU (spec §4.5). source may be nil, in which case the
// auto-tune loop is inert even if Start is called. bus may be nil to
// disable event publication.
func New(source ThroughputSource, bus *eventbus.Bus) *Governor {
	cpu := runtime.NumCPU()
	if cpu < 1 {
		cpu = 1
	}
	g := &Governor{
		capacity: 2 * cpu,
		minCap:   cpu,
		maxCap:   4 * cpu,
		source:   source,
		bus:      bus,
		logger:   logx.NewLogger("governor"),
	}
	g.sem = make(chan struct{}, g.maxCap)
	for i := 0; i < g.capacity; i++ {
		g.sem <- struct{}{}
	}
	return g
}

// Acquire blocks until a permit is free or ctx is cancelled.
func (g *Governor) Acquire(ctx context.Context) error {
	select {
	case <-g.sem:
		return nil
	case <-ctx.Done():
		return types.NewError(types.KindCancelled, "governor.Acquire", ctx.Err())
	}
}

// Release returns a permit. If a shrink is pending (the capacity was
// lowered while every permit was in flight), this Release fulfills the
// withdrawal instead of returning the permit to the pool.
func (g *Governor) Release() {
	g.mu.Lock()
	if g.pendingShrink > 0 {
		g.pendingShrink--
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()
	g.sem <- struct{}{}
}

// Capacity returns the current configured bound W.
func (g *Governor) Capacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity
}

// InUse returns the number of permits currently acquired and not yet
// released, for metrics reporting (pkg/metrics).
func (g *Governor) InUse() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity - len(g.sem) + g.pendingShrink
}

// Start begins the auto-tuning loop on the given cron schedule (empty
// defaults to "@every 30s"). It is a no-op if source was nil at
// construction.
func (g *Governor) Start(schedule string) error {
	if g.source == nil {
		return nil
	}
	if schedule == "" {
		schedule = defaultTuneSchedule
	}
	g.cron = cronlib.New()
	_, err := g.cron.AddFunc(schedule, g.autoTune)
	if err != nil {
		return types.NewError(types.KindInvalidArgument, "governor.Start", err)
	}
	g.cron.Start()
	return nil
}

// Stop halts the auto-tuning loop started by Start.
func (g *Governor) Stop() {
	if g.cron != nil {
		stopCtx := g.cron.Stop()
		<-stopCtx.Done()
	}
}

// autoTune applies the load-balancing rule from spec §4.5: grow by one
// permit when throughput is under 80% of target and capacity has room to
// grow; shrink by one when throughput exceeds 120% of target and capacity
// is above the floor. Otherwise leave W unchanged.
func (g *Governor) autoTune() {
	t := g.source.ThroughputPerMinute()

	switch {
	case t < 0.8*targetThroughputPerMinute:
		if g.grow() {
			g.logger.Info("throughput %.1f/min below target, grew capacity to %d", t, g.Capacity())
			g.publish()
		}
	case t > 1.2*targetThroughputPerMinute:
		if g.shrink() {
			g.logger.Info("throughput %.1f/min above target, shrank capacity to %d", t, g.Capacity())
			g.publish()
		}
	}
}

// grow increases capacity by one, reporting whether it did. Growing first
// cancels a withdrawal the previous tick scheduled but that hasn't been
// fulfilled by a Release yet, net of the semaphore's token count.
func (g *Governor) grow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.capacity >= g.maxCap {
		return false
	}
	g.capacity++
	if g.pendingShrink > 0 {
		g.pendingShrink--
		return true
	}
	g.sem <- struct{}{}
	return true
}

// shrink decreases capacity by one, reporting whether it did. If a permit
// is currently idle in the pool it is withdrawn immediately; otherwise the
// withdrawal is deferred to the next Release.
func (g *Governor) shrink() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.capacity <= g.minCap {
		return false
	}
	g.capacity--
	select {
	case <-g.sem:
	default:
		g.pendingShrink++
	}
	return true
}

func (g *Governor) publish() {
	if g.bus == nil {
		return
	}
	g.bus.Publish(eventbus.TopicGovernorResized, map[string]any{"capacity": g.Capacity()})
}
