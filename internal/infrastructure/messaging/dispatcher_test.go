package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// flakyHandler fails a fixed number of times before succeeding.
type flakyHandler struct {
	failures int
	calls    int
}

func (h *flakyHandler) Name() string { return "flaky" }

func (h *flakyHandler) Handle(shared.Event) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient failure")
	}
	return nil
}

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	bus := syncBus()
	d := NewDispatcher(DispatcherConfig{Bus: bus, RetryConfig: fastRetryConfig()})
	h := &flakyHandler{failures: 2}

	require.NoError(t, d.Register(shared.EventXPGained, h))
	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 0, 100, "lesson_completed")))

	assert.Equal(t, 3, h.calls)
	assert.Equal(t, 0, d.DeadLetters().Len())
}

func TestDispatcherDeadLettersExhaustedEvents(t *testing.T) {
	bus := syncBus()
	d := NewDispatcher(DispatcherConfig{Bus: bus, RetryConfig: fastRetryConfig()})
	h := &flakyHandler{failures: 100}

	require.NoError(t, d.Register(shared.EventXPGained, h))
	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("u1", 0, 100, "lesson_completed")))

	assert.Equal(t, 3, h.calls, "initial attempt plus two retries")
	require.Equal(t, 1, d.DeadLetters().Len())

	letters := d.DeadLetters().Drain()
	require.Len(t, letters, 1)
	assert.Equal(t, "flaky", letters[0].HandlerName)
	assert.Equal(t, 3, letters[0].Attempts)
	assert.Equal(t, shared.EventXPGained, letters[0].Event.EventType())
	assert.Equal(t, 0, d.DeadLetters().Len(), "drain empties the queue")
}

func TestDispatcherRejectsNilHandler(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Bus: syncBus(), RetryConfig: fastRetryConfig()})

	assert.ErrorIs(t, d.Register(shared.EventXPGained, nil), ErrNilHandler)
	assert.ErrorIs(t, d.RegisterAll(nil), ErrNilHandler)
}

func TestDeadLetterQueueEvictsOldestWhenFull(t *testing.T) {
	q := NewDeadLetterQueue(2)

	q.Add(DeadLetter{HandlerName: "first"})
	q.Add(DeadLetter{HandlerName: "second"})
	q.Add(DeadLetter{HandlerName: "third"})

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, int64(1), q.Dropped())

	letters := q.Drain()
	require.Len(t, letters, 2)
	assert.Equal(t, "second", letters[0].HandlerName)
	assert.Equal(t, "third", letters[1].HandlerName)
}
