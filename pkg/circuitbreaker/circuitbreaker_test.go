package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failing(context.Context) error { return errBoom }

func succeeding(context.Context) error { return nil }

func tripped(t *testing.T, b *Breaker, threshold int) {
	t.Helper()
	for i := 0; i < threshold; i++ {
		err := b.Execute(context.Background(), failing)
		require.ErrorIs(t, err, errBoom)
	}
	require.Equal(t, StateOpen, b.State())
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3})

	require.ErrorIs(t, b.Execute(context.Background(), failing), errBoom)
	require.ErrorIs(t, b.Execute(context.Background(), failing), errBoom)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, Timeout: time.Minute})
	tripped(t, b, 3)

	err := b.Execute(context.Background(), succeeding)

	assert.ErrorIs(t, err, ErrCircuitOpen, "open circuit blocks calls without running them")
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3})

	require.Error(t, b.Execute(context.Background(), failing))
	require.Error(t, b.Execute(context.Background(), failing))
	require.NoError(t, b.Execute(context.Background(), succeeding))
	require.Error(t, b.Execute(context.Background(), failing))
	require.Error(t, b.Execute(context.Background(), failing))

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerProbesAfterTimeout(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})
	tripped(t, b, 1)

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(context.Background(), succeeding))
	assert.Equal(t, StateHalfOpen, b.State(), "one success short of closing")

	require.NoError(t, b.Execute(context.Background(), succeeding))
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, Timeout: 10 * time.Millisecond})
	tripped(t, b, 1)

	time.Sleep(15 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.ErrorIs(t, b.Execute(context.Background(), failing), errBoom)

	assert.Equal(t, StateOpen, b.State())
}

func TestOnStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New(Config{
		Name:             "leaderboard-cache",
		FailureThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	tripped(t, b, 1)

	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
