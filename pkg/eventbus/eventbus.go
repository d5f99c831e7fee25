// Package eventbus provides the typed publish/subscribe bus the rest of the
// orchestration core uses to surface lifecycle and progress events (spec
// §4.9) to the external push channel. Publish never blocks the publisher:
// each subscriber owns a bounded buffer and drops the oldest event on
// overflow, counting the drop.
package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/logx"
)

// Topic identifies an event stream (spec §4.9).
type Topic string

const (
	TopicTaskEnqueued      Topic = "TaskEnqueued"
	TopicTaskDequeued      Topic = "TaskDequeued"
	TopicAgentRegistered   Topic = "AgentRegistered"
	TopicAgentUnregistered Topic = "AgentUnregistered"
	TopicAgentStatus       Topic = "AgentStatusChanged"
	TopicActiveModel       Topic = "ActiveModelChanged"
	TopicServerStatus      Topic = "ServerStatusChanged"
	TopicScanProgress      Topic = "ScanProgress"
	TopicScanIssueFound    Topic = "ScanIssueFound"
	TopicScanCompleted     Topic = "ScanCompleted"
	TopicGovernorResized   Topic = "GovernorCapacityChanged"
)

// Event is a single published payload tagged with its topic.
type Event struct {
	Topic Topic
	Data  any
}

// defaultBufferSize is the per-subscriber channel depth before drop-oldest
// kicks in.
const defaultBufferSize = 256

// subscriber is one registered listener for a topic.
type subscriber struct {
	ch      chan Event
	dropped atomic.Uint64
	mu      sync.Mutex // guards the drop-oldest compare-and-swap dance
}

// Bus is the process-wide typed event bus (spec §4.9).
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Topic][]*subscriber
	logger      *logx.Logger
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[Topic][]*subscriber),
		logger:      logx.NewLogger("eventbus"),
	}
}

// Subscription is a handle returned by Subscribe; Events delivers in FIFO
// order per subscriber, and Unsubscribe detaches it from the bus.
type Subscription struct {
	bus   *Bus
	topic Topic
	sub   *subscriber
}

// Events returns the channel this subscription receives on.
func (s *Subscription) Events() <-chan Event { return s.sub.ch }

// Dropped returns the count of events dropped due to buffer overflow.
func (s *Subscription) Dropped() uint64 { return s.sub.dropped.Load() }

// Unsubscribe detaches the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	subs := s.bus.subscribers[s.topic]
	for i, existing := range subs {
		if existing == s.sub {
			s.bus.subscribers[s.topic] = append(subs[:i], subs[i+1:]...)
			close(s.sub.ch)
			return
		}
	}
}

// Subscribe registers a new listener for topic with the given buffer
// depth (0 uses the default).
func (b *Bus) Subscribe(topic Topic, bufferSize int) *Subscription {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	sub := &subscriber{ch: make(chan Event, bufferSize)}

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
	b.mu.Unlock()

	return &Subscription{bus: b, topic: topic, sub: sub}
}

// Publish delivers data to every current subscriber of topic without
// blocking. A full subscriber buffer drops its oldest queued event to make
// room, incrementing that subscriber's drop counter.
func (b *Bus) Publish(topic Topic, data any) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	evt := Event{Topic: topic, Data: data}
	for _, sub := range subs {
		b.deliver(sub, evt)
	}
}

func (b *Bus) deliver(sub *subscriber, evt Event) {
	select {
	case sub.ch <- evt:
		return
	default:
	}

	// Buffer full: drop the oldest queued event, then enqueue this one.
	// Serialize against concurrent publishers targeting the same subscriber
	// so the drain-then-send pair can't race into a double-drop.
	sub.mu.Lock()
	defer sub.mu.Unlock()
	select {
	case <-sub.ch:
		sub.dropped.Add(1)
	default:
	}
	select {
	case sub.ch <- evt:
	default:
		// Another publisher raced us and refilled the buffer; count this
		// event as dropped rather than block the publisher.
		sub.dropped.Add(1)
		b.logger.Warn("dropped event on topic %s: subscriber buffer saturated", evt.Topic)
	}
}
