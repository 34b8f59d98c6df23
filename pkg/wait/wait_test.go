package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Options{Timeout: 500 * time.Millisecond, Interval: 5 * time.Millisecond}

func TestPoll(t *testing.T) {
	t.Run("ReturnsAsSoonAsDone", func(t *testing.T) {
		calls := 0
		v, err := Poll(context.Background(), fast, func(context.Context) (int, error) {
			calls++
			return calls, nil
		}, func(n int) bool { return n == 3 })
		require.NoError(t, err)
		assert.Equal(t, 3, v)
		assert.Equal(t, 3, calls)
	})

	t.Run("FetchErrorsAreRetried", func(t *testing.T) {
		calls := 0
		v, err := Poll(context.Background(), fast, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("503 Service Unavailable")
			}
			return "ok", nil
		}, func(s string) bool { return s == "ok" })
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
	})

	t.Run("Timeout", func(t *testing.T) {
		opts := Options{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond, Description: "shared links"}
		_, err := Poll(context.Background(), opts, func(context.Context) (int, error) {
			return 2, nil
		}, func(n int) bool { return n == 3 })
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTimeout)

		var timeoutErr *TimeoutError
		require.True(t, errors.As(err, &timeoutErr))
		assert.Equal(t, 2, timeoutErr.Last)
		assert.Greater(t, timeoutErr.Attempts, 1)
		assert.Contains(t, err.Error(), "shared links")
	})

	t.Run("TimeoutKeepsLastError", func(t *testing.T) {
		opts := Options{Timeout: 30 * time.Millisecond, Interval: 5 * time.Millisecond}
		_, err := Poll(context.Background(), opts, func(context.Context) (int, error) {
			return 0, errors.New("connection refused")
		}, func(n int) bool { return n == 1 })
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Poll(ctx, fast, func(context.Context) (int, error) {
			return 0, nil
		}, func(n int) bool { return n == 1 })
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrTimeout)
	})
}

func TestForCount(t *testing.T) {
	n := 5
	err := ForCount(context.Background(), fast, 3, func(context.Context) (int, error) {
		n--
		return n, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	err = ForCount(context.Background(), Options{Timeout: 20 * time.Millisecond, Interval: 5 * time.Millisecond}, 3,
		func(context.Context) (int, error) { return 4, nil })
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "expected 3")
}

func TestUntil(t *testing.T) {
	calls := 0
	err := Until(context.Background(), fast, func(context.Context) (bool, error) {
		calls++
		return calls >= 2, nil
	})
	assert.NoError(t, err)
}

func TestDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultTimeout, o.Timeout)
	assert.Equal(t, DefaultInterval, o.Interval)
	assert.Equal(t, "condition", o.Description)
}
