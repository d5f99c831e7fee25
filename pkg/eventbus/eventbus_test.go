package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribeFIFO(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicScanProgress, 0)
	defer sub.Unsubscribe()

	b.Publish(TopicScanProgress, 1)
	b.Publish(TopicScanProgress, 2)
	b.Publish(TopicScanProgress, 3)

	for _, want := range []int{1, 2, 3} {
		select {
		case evt := <-sub.Events():
			assert.Equal(t, want, evt.Data)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestOverflowDropsOldest(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicScanProgress, 2)
	defer sub.Unsubscribe()

	b.Publish(TopicScanProgress, 1)
	b.Publish(TopicScanProgress, 2)
	b.Publish(TopicScanProgress, 3) // drops 1

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, 2, first.Data)
	assert.Equal(t, 3, second.Data)
	assert.Equal(t, uint64(1), sub.Dropped())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicAgentStatus, 0)
	sub.Unsubscribe()

	require.NotPanics(t, func() {
		b.Publish(TopicAgentStatus, "whatever")
	})
}

func TestPublishDoesNotBlockWithoutSubscribers(t *testing.T) {
	b := New()
	done := make(chan struct{})
	go func() {
		b.Publish(TopicTaskEnqueued, "x")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
