package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errConflict = errors.New("conflict")

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithInitialDelay(0), WithJitter(0)}, opts...)...)
}

func TestDo_RetriesRetryableUntilSuccess(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(5)).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errConflict)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsUnwrappedErrorAfterLastAttempt(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(2)).Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errConflict)
	})

	assert.Equal(t, 2, calls)
	assert.Same(t, errConflict, err)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	err := fast(WithMaxAttempts(5)).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errConflict)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, errConflict, err)
}

func TestDo_RetryIfPredicate(t *testing.T) {
	calls := 0
	r := fast(WithMaxAttempts(4), WithRetryIf(func(err error) bool { return errors.Is(err, errConflict) }))

	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errConflict
	})
	assert.Equal(t, 4, calls)
	assert.ErrorIs(t, err, errConflict)

	calls = 0
	other := errors.New("other")
	err = r.Do(context.Background(), func(context.Context) error {
		calls++
		return other
	})
	assert.Equal(t, 1, calls)
	assert.Same(t, other, err)
}

func TestDo_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fast().Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(3*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, r.Backoff(1))
	assert.Equal(t, 2*time.Second, r.Backoff(2))
	assert.Equal(t, 3*time.Second, r.Backoff(5))
}

func TestDoWithData(t *testing.T) {
	v, err := DoWithData(context.Background(), fast(), func(context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}
