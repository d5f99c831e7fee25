// Package queue implements the priority task queue (spec §4.1): four FIFO
// buckets, one per priority, with blocking dequeue that always drains the
// highest non-empty bucket first.
package queue

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
	"github.com/ShadmanAbir/A3sist-sub000/pkg/types"
)

// Item is one enqueued unit of work (spec §3 QueueItem).
type Item struct {
	Request    *types.Request
	Priority   types.Priority
	EnqueuedAt time.Time
}

// Stats is the observer snapshot returned by Stats() (spec §4.1).
type Stats struct {
	TotalEnqueued     uint64
	TotalDequeued     uint64
	PerPriorityCounts map[types.Priority]uint64
	ThroughputPerMin  float64
	AverageWaitTime   time.Duration
}

// Queue is the priority task queue (spec §4.1). Zero value is not usable;
// construct with New.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[types.Priority]*list.List

	totalEnqueued uint64
	totalDequeued uint64
	perPriority   map[types.Priority]uint64
	waitTotal     time.Duration
	dequeueTimes  []time.Time // rolling window for throughput

	bus    *eventbus.Bus
	logger *logx.Logger
}

// New builds an empty Queue. bus may be nil if no events should be
// published.
func New(bus *eventbus.Bus) *Queue {
	q := &Queue{
		buckets:     make(map[types.Priority]*list.List),
		perPriority: make(map[types.Priority]uint64),
		bus:         bus,
		logger:      logx.NewLogger("queue"),
	}
	for _, p := range types.PriorityOrder() {
		q.buckets[p] = list.New()
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends request to the PriorityNormal bucket. It never blocks.
func (q *Queue) Enqueue(req *types.Request) error {
	return q.EnqueueWithPriority(req, types.PriorityNormal)
}

// EnqueueWithPriority appends request to the given priority's bucket.
func (q *Queue) EnqueueWithPriority(req *types.Request, priority types.Priority) error {
	if req == nil {
		return types.NewError(types.KindInvalidArgument, "queue.Enqueue", nil)
	}

	item := &Item{Request: req, Priority: priority, EnqueuedAt: time.Now()}

	q.mu.Lock()
	q.buckets[priority].PushBack(item)
	q.totalEnqueued++
	q.perPriority[priority]++
	q.mu.Unlock()

	q.cond.Signal()

	if q.bus != nil {
		q.bus.Publish(eventbus.TopicTaskEnqueued, map[string]any{
			"request": req, "priority": priority,
		})
	}
	return nil
}

// Dequeue returns the oldest item of the highest non-empty priority,
// blocking until one is available or ctx is cancelled.
func (q *Queue) Dequeue(ctx context.Context) (*types.Request, error) {
	// Wake the blocked Wait() if the caller's context is cancelled, since
	// sync.Cond has no native context support.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			q.cond.Broadcast()
		case <-done:
		}
	}()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if item, priority := q.popHighestLocked(); item != nil {
			q.totalDequeued++
			wait := time.Since(item.EnqueuedAt)
			q.waitTotal += wait
			q.dequeueTimes = append(q.dequeueTimes, time.Now())
			q.trimThroughputWindowLocked()

			if q.bus != nil {
				q.bus.Publish(eventbus.TopicTaskDequeued, map[string]any{
					"request": item.Request, "priority": priority, "waitTime": wait,
				})
			}
			return item.Request, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindCancelled, "queue.Dequeue", err)
		}

		q.cond.Wait()

		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindCancelled, "queue.Dequeue", err)
		}
	}
}

// popHighestLocked removes and returns the front item of the highest
// non-empty bucket. Caller must hold q.mu.
func (q *Queue) popHighestLocked() (*Item, types.Priority) {
	for _, p := range types.PriorityOrder() {
		bucket := q.buckets[p]
		if front := bucket.Front(); front != nil {
			bucket.Remove(front)
			return front.Value.(*Item), p //nolint:errcheck // bucket only ever holds *Item
		}
	}
	return nil, types.PriorityLow
}

// trimThroughputWindowLocked drops dequeue timestamps older than one
// minute; caller must hold q.mu.
func (q *Queue) trimThroughputWindowLocked() {
	cutoff := time.Now().Add(-time.Minute)
	i := 0
	for i < len(q.dequeueTimes) && q.dequeueTimes[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		q.dequeueTimes = q.dequeueTimes[i:]
	}
}

// ThroughputPerMinute reports the current dequeue rate, satisfying
// governor.ThroughputSource for the concurrency governor's auto-tune loop
// (spec §4.5).
func (q *Queue) ThroughputPerMinute() float64 {
	return q.Stats().ThroughputPerMin
}

// Size returns the total number of items currently queued.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, p := range types.PriorityOrder() {
		total += q.buckets[p].Len()
	}
	return total
}

// Stats returns a snapshot of queue statistics (spec §4.1).
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	perPriority := make(map[types.Priority]uint64, len(q.perPriority))
	for p, c := range q.perPriority {
		perPriority[p] = c
	}

	var avgWait time.Duration
	if q.totalDequeued > 0 {
		avgWait = q.waitTotal / time.Duration(q.totalDequeued)
	}

	return Stats{
		TotalEnqueued:     q.totalEnqueued,
		TotalDequeued:     q.totalDequeued,
		PerPriorityCounts: perPriority,
		ThroughputPerMin:  float64(len(q.dequeueTimes)),
		AverageWaitTime:   avgWait,
	}
}

// Clear empties every bucket without affecting cumulative statistics.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range types.PriorityOrder() {
		q.buckets[p] = list.New()
	}
}
