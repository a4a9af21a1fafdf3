package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_PublishReachesSubscriber(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var got []shared.Event
	err := bus.Subscribe(shared.EventTaskCompleted, func(e shared.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewTaskCompletedEvent(42, "alg-001", "algebra", true, true, 2)
	require.NoError(t, bus.Publish(event))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventTaskCompleted, got[0].EventType())
	assert.Equal(t, "42", got[0].AggregateID())
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventBadgeUnlocked, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewTaskCompletedEvent(42, "alg-001", "algebra", true, true, 2)))
	assert.Equal(t, 0, calls)

	require.NoError(t, bus.Publish(shared.NewBadgeUnlockedEvent(42, "Холодна голова", 10)))
	assert.Equal(t, 1, calls)
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var types []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		types = append(types, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewPointsGainedEvent(42, 2, 10, "answer")))
	require.NoError(t, bus.Publish(shared.NewFeedbackLeftEvent(42, "fb-1")))

	assert.Equal(t, []shared.EventType{shared.EventPointsGained, shared.EventFeedbackLeft}, types)
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	second := false
	require.NoError(t, bus.Subscribe(shared.EventPointsGained, func(shared.Event) error {
		return errors.New("handler failed")
	}))
	require.NoError(t, bus.Subscribe(shared.EventPointsGained, func(shared.Event) error {
		second = true
		return nil
	}))

	// The bus logs handler errors instead of propagating them.
	require.NoError(t, bus.Publish(shared.NewPointsGainedEvent(42, 2, 10, "answer")))
	assert.True(t, second)
}

func TestEventBus_AsyncDelivery(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	received := 0
	done := make(chan struct{})
	require.NoError(t, bus.Subscribe(shared.EventTaskCompleted, func(shared.Event) error {
		mu.Lock()
		received++
		if received == 3 {
			close(done)
		}
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(shared.NewTaskCompletedEvent(42, "alg-001", "algebra", true, false, 0)))
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for async delivery")
	}
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, received)
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewPointsGainedEvent(42, 2, 10, "answer"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventPointsGained, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEventBus_EventIDsAreUnique(t *testing.T) {
	a := shared.NewPointsGainedEvent(42, 2, 10, "answer")
	b := shared.NewPointsGainedEvent(42, 2, 10, "answer")

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
