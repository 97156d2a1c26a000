package async

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventBusBroadcastsToAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	var mu sync.Mutex
	var seenA, seenB []EventType

	bus.Subscribe("a", func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seenA = append(seenA, e.Type)
	})
	bus.Subscribe("b", func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		seenB = append(seenB, e.Type)
	})

	bus.Broadcast(Event{Type: EventOperationStarted, Timestamp: time.Now()})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []EventType{EventOperationStarted}, seenA)
	require.Equal(t, []EventType{EventOperationStarted}, seenB)
}

func TestEventBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	count := 0
	bus.Subscribe("a", func(e Event) { count++ })
	bus.Unsubscribe("a")

	bus.Broadcast(Event{Type: EventOperationCompleted})
	require.Equal(t, 0, count)
}

func TestEventBusRecoversFromPanickingSubscriber(t *testing.T) {
	bus := NewEventBus()
	delivered := false
	bus.Subscribe("panicker", func(e Event) { panic("boom") })
	bus.Subscribe("survivor", func(e Event) { delivered = true })

	require.NotPanics(t, func() {
		bus.Broadcast(Event{Type: EventOperationFailed})
	})
	require.True(t, delivered)
}

func TestEventBusSubscriberCanUnsubscribeItselfDuringBroadcast(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe("self", func(e Event) {
		bus.Unsubscribe("self")
	})

	require.NotPanics(t, func() {
		bus.Broadcast(Event{Type: EventOperationStarted})
	})
}

func TestEventBusRecentEventsReturnsOldestFirstWithinCapacity(t *testing.T) {
	bus := NewEventBus()
	for i := 0; i < 5; i++ {
		bus.Broadcast(Event{Type: EventOperationStarted, OperationID: string(rune('a' + i))})
	}

	recent := bus.RecentEvents(3)
	require.Len(t, recent, 3)
	require.Equal(t, "c", recent[0].OperationID)
	require.Equal(t, "d", recent[1].OperationID)
	require.Equal(t, "e", recent[2].OperationID)
}

func TestEventBusRecentEventsWrapsRingBuffer(t *testing.T) {
	bus := NewEventBus()
	total := eventRingCapacity + 10
	for i := 0; i < total; i++ {
		bus.Broadcast(Event{Type: EventOperationStarted, OperationID: string(rune('a' + i%26))})
	}

	recent := bus.RecentEvents(0)
	require.Len(t, recent, eventRingCapacity)
}
