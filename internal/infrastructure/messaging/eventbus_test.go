package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// countingHandler is a test handler that records every event it sees.
type countingHandler struct {
	mu     sync.Mutex
	name   string
	events []shared.Event
	err    error
	panics bool
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) Handle(event shared.Event) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	return h.err
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func TestPublishDeliversToTypeSubscribers(t *testing.T) {
	bus := syncBus()
	xpHandler := &countingHandler{name: "xp"}
	levelHandler := &countingHandler{name: "level"}

	require.NoError(t, bus.Subscribe(shared.EventXPGained, xpHandler))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, levelHandler))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 0, 100, "lesson_completed")))

	assert.Equal(t, 1, xpHandler.count())
	assert.Equal(t, 0, levelHandler.count())
}

func TestPublishDeliversToGlobalSubscribers(t *testing.T) {
	bus := syncBus()
	all := &countingHandler{name: "audit"}
	require.NoError(t, bus.SubscribeAll(all))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 0, 100, "lesson_completed")))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("u1", 1, 2)))

	assert.Equal(t, 2, all.count())
}

func TestPublishIsolatesHandlerFailures(t *testing.T) {
	bus := syncBus()
	failing := &countingHandler{name: "failing", err: errors.New("db down")}
	healthy := &countingHandler{name: "healthy"}

	require.NoError(t, bus.Subscribe(shared.EventXPGained, failing))
	require.NoError(t, bus.Subscribe(shared.EventXPGained, healthy))

	err := bus.Publish(shared.NewXPGainedEvent("u1", 0, 100, "lesson_completed"))

	require.NoError(t, err, "handler errors never surface to the publisher")
	assert.Equal(t, 1, healthy.count())
}

func TestPublishRecoversFromHandlerPanic(t *testing.T) {
	bus := syncBus()
	panicking := &countingHandler{name: "panicking", panics: true}
	healthy := &countingHandler{name: "healthy"}

	require.NoError(t, bus.Subscribe(shared.EventXPGained, panicking))
	require.NoError(t, bus.Subscribe(shared.EventXPGained, healthy))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 0, 100, "lesson_completed")))

	assert.Equal(t, 1, healthy.count())

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, 0.5, snap.HandlerSuccessRate)
}

func TestPublishRejectsNilEvent(t *testing.T) {
	assert.ErrorIs(t, syncBus().Publish(nil), ErrNilEvent)
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	bus := syncBus()
	assert.ErrorIs(t, bus.Subscribe(shared.EventXPGained, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestClosedBusRejectsOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewLevelUpEvent("u1", 1, 2)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventLevelUp, &countingHandler{name: "late"}), ErrEventBusClosed)
	assert.NoError(t, bus.Close(), "double close is a no-op")
}

func TestAsyncPublishDeliversEventually(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
	})
	h := &countingHandler{name: "async"}
	require.NoError(t, bus.Subscribe(shared.EventXPGained, h))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", i*10, (i+1)*10, "lesson_completed")))
	}

	assert.Eventually(t, func() bool { return h.count() == 5 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())
}

func TestMetricsSnapshotCountsPublishes(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Subscribe(shared.EventXPGained, &countingHandler{name: "h"}))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 0, 10, "lesson_completed")))
	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 10, 20, "lesson_completed")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}
