package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("connection refused")

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	bad := errors.New("bad credentials")

	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(bad)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(context.Context) error {
		return errTransient
	}, WithMaxAttempts(3))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestOnRetryCallback(t *testing.T) {
	var attempts []int
	_ = Do(context.Background(), func(context.Context) error {
		return errTransient
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)

	assert.Equal(t, []int{1, 2}, attempts, "callback fires before each retry, not the first attempt")
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(Permanent(errTransient)))
	assert.False(t, IsPermanent(errTransient))
	assert.NoError(t, Permanent(nil))
}
