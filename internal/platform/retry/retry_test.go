package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func TestDo_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	var retried []int
	p := fast
	p.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	val, err := Do(context.Background(), p, Always, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection refused")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	bad := errors.New("invalid DSN")
	calls := 0

	_, err := Do(context.Background(), fast, func(error) Action { return Stop }, func() (int, error) {
		calls++
		return 0, bad
	})

	var perm *PermanentError
	require.ErrorAs(t, err, &perm)
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast, Always, func() (int, error) {
		calls++
		return 0, errors.New("still down")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDo_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 5, InitialBackoff: time.Hour}
	_, err := Do(ctx, p, Always, func() (int, error) {
		return 0, errors.New("down")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
