package eventbus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRejectsBadInput(t *testing.T) {
	b := New()

	assert.Zero(t, b.Subscribe("", func(any) {}, "owner", false))
	assert.Zero(t, b.Subscribe("topic", nil, "owner", false))
	assert.NotZero(t, b.Subscribe("topic", func(any) {}, "owner", false))
}

func TestSubscriptionIDsAreUnique(t *testing.T) {
	b := New()

	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		id := b.Subscribe(fmt.Sprintf("topic/%d", i), func(any) {}, "owner", false)
		require.NotZero(t, id)
		require.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
}

func TestPublishAndPoll(t *testing.T) {
	b := New()

	var got []any
	b.Subscribe("sensor/temp", func(p any) { got = append(got, p) }, "owner", false)

	b.Publish("sensor/temp", 21.5)
	b.Publish("sensor/temp", 22.0)
	assert.Equal(t, 2, b.Len())

	n := b.Poll(0)
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{21.5, 22.0}, got)
	assert.Zero(t, b.Len())
}

func TestFIFOOrderAcrossTopics(t *testing.T) {
	b := New()

	var order []string
	b.Subscribe("a", func(any) { order = append(order, "a") }, "o", false)
	b.Subscribe("b", func(any) { order = append(order, "b") }, "o", false)

	b.Publish("b", nil)
	b.Publish("a", nil)
	b.Publish("b", nil)
	b.Poll(0)

	assert.Equal(t, []string{"b", "a", "b"}, order)
}

func TestPollBudget(t *testing.T) {
	b := New()

	count := 0
	b.Subscribe("t", func(any) { count++ }, "o", false)
	for i := 0; i < 10; i++ {
		b.Publish("t", i)
	}

	assert.Equal(t, 3, b.Poll(3))
	assert.Equal(t, 3, count)
	assert.Equal(t, 7, b.Len())

	assert.Equal(t, 7, b.Poll(0))
	assert.Equal(t, 10, count)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	count := 0
	id := b.Subscribe("t", func(any) { count++ }, "o", false)

	b.Publish("t", nil)
	b.Poll(0)
	require.Equal(t, 1, count)

	b.Unsubscribe(id)
	b.Publish("t", nil)
	b.Poll(0)
	assert.Equal(t, 1, count)
}

func TestUnsubscribeOwnerRemovesAll(t *testing.T) {
	b := New()

	var aCount, bCount int
	b.Subscribe("x", func(any) { aCount++ }, "alpha", false)
	b.Subscribe("y", func(any) { aCount++ }, "alpha", false)
	b.Subscribe("x/*", func(any) { aCount++ }, "alpha", false)
	b.Subscribe("x", func(any) { bCount++ }, "beta", false)

	b.UnsubscribeOwner("alpha")

	b.Publish("x", nil)
	b.Publish("y", nil)
	b.Publish("x/1", nil)
	b.Poll(0)

	assert.Zero(t, aCount)
	assert.Equal(t, 1, bCount)
}

func TestDropOldestEviction(t *testing.T) {
	b := New() // capacity 32

	var got []any
	b.Subscribe("t", func(p any) { got = append(got, p) }, "o", false)

	for i := 0; i < 40; i++ {
		b.Publish("t", i)
	}
	assert.Equal(t, DefaultQueueCapacity, b.Len())

	b.Poll(0)
	require.Len(t, got, 32)
	// Events 0..7 evicted; 8..39 survive in order.
	assert.Equal(t, 8, got[0])
	assert.Equal(t, 39, got[31])
}

func TestCustomCapacity(t *testing.T) {
	b := New(WithCapacity(4))

	for i := 0; i < 10; i++ {
		b.Publish("t", i)
	}
	assert.Equal(t, 4, b.Len())
}

func TestStickyReplayOnSubscribe(t *testing.T) {
	b := New()

	b.PublishSticky("state/mode", "eco")
	b.Poll(0)

	var got any
	b.Subscribe("state/mode", func(p any) { got = p }, "o", true)
	assert.Equal(t, "eco", got)

	v, ok := b.Sticky("state/mode")
	require.True(t, ok)
	assert.Equal(t, "eco", v)
}

func TestStickyReplaySuppressedWhilePending(t *testing.T) {
	b := New()

	b.PublishSticky("state/mode", "eco")
	b.Poll(0)

	// A fresher publish for the same topic is queued but not yet delivered:
	// replay must not fire, or the subscriber would see the value twice.
	b.PublishSticky("state/mode", "performance")

	var got []any
	b.Subscribe("state/mode", func(p any) { got = append(got, p) }, "o", true)
	assert.Empty(t, got, "replay must be suppressed while an event is queued")

	b.Poll(0)
	assert.Equal(t, []any{"performance"}, got)
}

func TestStickyReplayReenabledAfterEviction(t *testing.T) {
	b := New(WithCapacity(2))

	b.PublishSticky("state/mode", "eco")
	// Push the sticky publish out of the queue entirely.
	b.Publish("noise", 1)
	b.Publish("noise", 2)
	b.Publish("noise", 3)

	// The queued state/mode event is gone, so the pending count must be back
	// to zero and replay must fire from the retained value.
	var got []any
	b.Subscribe("state/mode", func(p any) { got = append(got, p) }, "o", true)
	assert.Equal(t, []any{"eco"}, got)
}

func TestStickyNoReplayWithoutFlag(t *testing.T) {
	b := New()

	b.PublishSticky("t", 1)
	b.Poll(0)

	called := false
	b.Subscribe("t", func(any) { called = true }, "o", false)
	assert.False(t, called)
}

func TestWildcardMatching(t *testing.T) {
	tests := []struct {
		topic   string
		pattern string
		want    bool
	}{
		{"sensor/temp", "sensor/*", true},
		{"sensor/temp/attic", "sensor/*", true},
		{"sensors", "sensor/*", false},
		{"sensor/temp", "*", true},
		{"sensor/temp/high", "sensor/*high", true},
		{"sensor/high", "sensor/*high", true},
		{"sensor/low", "sensor/*high", false},
		{"ab", "a*b", true},
		{"a", "a*b", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesWildcard(tt.topic, tt.pattern))
		})
	}
}

func TestWildcardSubscription(t *testing.T) {
	b := New()

	var got []string
	b.Subscribe("sensor/*", func(p any) { got = append(got, p.(string)) }, "o", false)

	b.Publish("sensor/temp", "t")
	b.Publish("sensor/humidity", "h")
	b.Publish("actuator/relay", "r")
	b.Poll(0)

	assert.Equal(t, []string{"t", "h"}, got)
}

func TestExactSubscribersBeforeWildcard(t *testing.T) {
	b := New()

	var order []string
	b.Subscribe("sensor/*", func(any) { order = append(order, "wild") }, "o", false)
	b.Subscribe("sensor/temp", func(any) { order = append(order, "exact") }, "o", false)

	b.Publish("sensor/temp", nil)
	b.Poll(0)

	assert.Equal(t, []string{"exact", "wild"}, order)
}

func TestSubscribeDuringDispatch(t *testing.T) {
	b := New()

	lateCalls := 0
	b.Subscribe("t", func(any) {
		b.Subscribe("t", func(any) { lateCalls++ }, "late", false)
	}, "o", false)

	b.Publish("t", nil)
	b.Poll(0)
	// The handler installed mid-dispatch must not see the event that
	// triggered its installation.
	assert.Zero(t, lateCalls)

	b.Publish("t", nil)
	b.Poll(0)
	assert.Equal(t, 1, lateCalls)
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	b := New()

	var ids [2]uint64
	calls := [2]int{}
	ids[0] = b.Subscribe("t", func(any) {
		calls[0]++
		b.Unsubscribe(ids[1])
	}, "o", false)
	ids[1] = b.Subscribe("t", func(any) { calls[1]++ }, "o", false)

	b.Publish("t", nil)
	b.Poll(0)
	// The snapshot taken at dispatch start still delivers to the removed
	// handler for this event.
	assert.Equal(t, 1, calls[0])
	assert.Equal(t, 1, calls[1])

	b.Publish("t", nil)
	b.Poll(0)
	assert.Equal(t, 2, calls[0])
	assert.Equal(t, 1, calls[1])
}

func TestPublishDuringDispatchStaysQueued(t *testing.T) {
	b := New()

	count := 0
	b.Subscribe("t", func(any) {
		count++
		if count == 1 {
			b.Publish("t", nil)
		}
	}, "o", false)

	b.Publish("t", nil)
	// The drain snapshot is taken at call time: the event published by the
	// handler waits for the next Poll.
	assert.Equal(t, 1, b.Poll(0))
	assert.Equal(t, 1, count)

	assert.Equal(t, 1, b.Poll(0))
	assert.Equal(t, 2, count)
}

func TestTypedEvents(t *testing.T) {
	b := New()

	const TypeSensor = TypeCustom + 1

	var got []any
	b.SubscribeType(TypeSensor, func(p any) { got = append(got, p) }, "o")
	b.SubscribeType(TypeCustom, func(any) { t.Fatal("wrong type delivered") }, "o")

	b.PublishType(TypeSensor, 42)
	b.Poll(0)

	assert.Equal(t, []any{42}, got)
}

func TestNilPayloadDelivered(t *testing.T) {
	b := New()

	called := false
	b.Subscribe("t", func(p any) {
		called = true
		assert.Nil(t, p)
	}, "o", false)

	b.Publish("t", nil)
	b.Poll(0)
	assert.True(t, called)
}

func TestReset(t *testing.T) {
	b := New()

	count := 0
	b.Subscribe("t", func(any) { count++ }, "o", false)
	b.PublishSticky("t", 1)

	b.Reset()

	assert.Zero(t, b.Len())
	_, ok := b.Sticky("t")
	assert.False(t, ok)

	b.Publish("t", nil)
	b.Poll(0)
	assert.Zero(t, count)

	// Ids keep climbing across a reset.
	id1 := b.Subscribe("t", func(any) {}, "o", false)
	b.Reset()
	id2 := b.Subscribe("t", func(any) {}, "o", false)
	assert.Greater(t, id2, id1)
}

func TestMultipleSubscribersSameTopic(t *testing.T) {
	b := New()

	var order []int
	for i := 0; i < 3; i++ {
		n := i
		b.Subscribe("t", func(any) { order = append(order, n) }, "o", false)
	}

	b.Publish("t", nil)
	b.Poll(0)
	assert.Equal(t, []int{0, 1, 2}, order)
}
