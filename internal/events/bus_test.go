package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe(TypeSegmentStarted)
	b := bus.Subscribe(TypeSegmentStarted)
	other := bus.Subscribe(TypeQueueEmpty)

	bus.Publish(TypeSegmentStarted, "payload")

	for _, sub := range []Subscriber{a, b} {
		select {
		case ev := <-sub:
			assert.Equal(t, TypeSegmentStarted, ev.Type)
			assert.Equal(t, "payload", ev.Payload)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received event")
		}
	}

	select {
	case ev := <-other:
		t.Fatalf("wrong topic delivered: %+v", ev)
	default:
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TypePlaybackError)

	done := make(chan struct{})
	go func() {
		// Well past the subscriber buffer; must not block.
		for i := 0; i < 100; i++ {
			bus.Publish(TypePlaybackError, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.LessOrEqual(t, len(sub), cap(sub))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(TypeQueueEmpty)

	bus.Unsubscribe(TypeQueueEmpty, sub)

	_, ok := <-sub
	require.False(t, ok, "channel should be closed")

	// Publishing after unsubscribe must not panic or deliver.
	bus.Publish(TypeQueueEmpty, nil)
}
