package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/dead-stock/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	fast := service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Linear:       true,
	}

	t.Run("succeeds after transient network errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &NetworkError{Op: "credits", Err: errors.New("connection reset")}
			}
			return nil
		}, fast)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &NetworkError{Op: "health", Err: errors.New("timeout")}
		}, fast)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		var netErr *NetworkError
		assert.ErrorAs(t, err, &netErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry non-retryable errors", func(t *testing.T) {
		calls := 0
		authErr := &AuthError{Op: "credits"}
		err := WithRetry(context.Background(), func() error {
			calls++
			return authErr
		}, fast)

		assert.Same(t, authErr, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("no retry policy runs once", func(t *testing.T) {
		calls := 0
		netErr := &NetworkError{Op: "listings", Err: errors.New("refused")}
		err := WithRetry(context.Background(), func() error {
			calls++
			return netErr
		}, service.NoRetry)

		assert.Same(t, netErr, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("context cancellation stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := WithRetry(ctx, func() error {
			calls++
			cancel()
			return &NetworkError{Op: "credits", Err: errors.New("boom")}
		}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second, Linear: true})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestNextDelay(t *testing.T) {
	linear := service.RetryOptions{InitialDelay: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond, Linear: true}
	assert.Equal(t, 200*time.Millisecond, nextDelay(100*time.Millisecond, 1, linear))
	assert.Equal(t, 250*time.Millisecond, nextDelay(200*time.Millisecond, 2, linear))

	exp := service.RetryOptions{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 200*time.Millisecond, nextDelay(100*time.Millisecond, 1, exp))
}

func TestCreditError_Shortfall(t *testing.T) {
	err := &CreditError{Required: 120, Available: 20}
	assert.Equal(t, 100, err.Shortfall())
	assert.Equal(t, "insufficient credits: need 120, have 20", err.Error())
	assert.Equal(t, 0, (&CreditError{Required: 1, Available: 5}).Shortfall())
}

func TestIsUnreachable(t *testing.T) {
	assert.True(t, IsUnreachable(&NetworkError{Op: "x", Err: errors.New("y")}))
	assert.True(t, IsUnreachable(&AuthError{Op: "x"}))
	assert.False(t, IsUnreachable(errors.New("parse failure")))
	assert.False(t, IsUnreachable(&CreditError{Required: 2}))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())

	_, err = ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
