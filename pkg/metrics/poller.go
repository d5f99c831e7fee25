package metrics

import (
	cronlib "github.com/robfig/cron/v3"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/breaker/circuit"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/queue"
)

// QueueSource reports the queue's depth and cumulative statistics.
type QueueSource interface {
	Size() int
	Stats() queue.Stats
}

// BreakerSource reports one named breaker's current state.
type BreakerSource struct {
	Name    string
	Breaker circuit.Breaker
}

// GovernorSource reports the governor's capacity and permits in use.
type GovernorSource interface {
	Capacity() int
	InUse() int
}

// Poller periodically samples queue/breaker/governor state that isn't
// naturally event-driven and feeds it into a Recorder. Grounded on
// pkg/registry.Registry.Start's identical cron-scheduled poll loop.
type Poller struct {
	recorder Recorder
	queue    QueueSource
	breakers []BreakerSource
	governor GovernorSource
	cron     *cronlib.Cron
}

// NewPoller builds a Poller. Any source may be nil/empty to skip that
// component's metrics.
func NewPoller(recorder Recorder, q QueueSource, breakers []BreakerSource, gov GovernorSource) *Poller {
	return &Poller{recorder: recorder, queue: q, breakers: breakers, governor: gov}
}

// Start begins polling on the given cron schedule (empty defaults to
// "@every 15s").
func (p *Poller) Start(schedule string) error {
	if schedule == "" {
		schedule = "@every 15s"
	}
	p.cron = cronlib.New()
	_, err := p.cron.AddFunc(schedule, p.sample)
	if err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop halts polling started by Start.
func (p *Poller) Stop() {
	if p.cron != nil {
		stopCtx := p.cron.Stop()
		<-stopCtx.Done()
	}
}

func (p *Poller) sample() {
	if p.queue != nil {
		p.recorder.ObserveQueue(p.queue.Stats(), p.queue.Size())
	}
	for _, b := range p.breakers {
		p.recorder.ObserveBreaker(b.Name, b.Breaker.GetState())
	}
	if p.governor != nil {
		p.recorder.ObserveGovernor(p.governor.Capacity(), p.governor.InUse())
	}
}
