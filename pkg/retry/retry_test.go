package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "xhsdl/pkg/errors"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.5,
	}

	for i := 0; i < 50; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset")
		}
		return nil
	}, fastConfig(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	for _, maxRetry := range []int{0, 1, 3} {
		attempts := 0
		cfg := FromMaxRetry(maxRetry, &ConstantBackoff{Delay: time.Millisecond}, nil)

		err := Do(context.Background(), func() error {
			attempts++
			return errs.New(errs.ErrorTypeServerError, "bad gateway")
		}, cfg)

		require.Error(t, err)
		assert.Equal(t, maxRetry+1, attempts, "max_retry=%d", maxRetry)
		assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := []error{
		errs.New(errs.ErrorTypeNotFound, "gone"),
		errs.New(errs.ErrorTypeParsing, "bad state"),
		errs.New(errs.ErrorTypeStorage, "disk full"),
		errors.New("untyped"),
	}

	for _, want := range permanent {
		attempts := 0
		err := Do(context.Background(), func() error {
			attempts++
			return want
		}, fastConfig(5))

		assert.Same(t, want, err)
		assert.Equal(t, 1, attempts)
	}
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Do(ctx, func() error {
		attempts++
		return errs.New(errs.ErrorTypeNetwork, "timeout")
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestDoCallsOnRetry(t *testing.T) {
	var seen []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		seen = append(seen, attempt)
	}

	_ = Do(context.Background(), func() error {
		return errs.New(errs.ErrorTypeRateLimit, "slow down")
	}, cfg)

	assert.Equal(t, []int{1, 2}, seen)
}

func TestErrorTypeBackoff(t *testing.T) {
	etb := NewErrorTypeBackoff()
	for _, b := range etb.PerType {
		b.(*ExponentialBackoff).JitterFactor = 0
	}
	etb.Default = &ConstantBackoff{Delay: 7 * time.Millisecond}

	assert.Equal(t, time.Second, etb.DelayFor(1, errs.New(errs.ErrorTypeNetwork, "x")))
	assert.Equal(t, 5*time.Second, etb.DelayFor(1, errs.New(errs.ErrorTypeRateLimit, "x")))
	assert.Equal(t, 2*time.Second, etb.DelayFor(1, errs.New(errs.ErrorTypeServerError, "x")))
	assert.Equal(t, 7*time.Millisecond, etb.DelayFor(3, errors.New("untyped")))
	assert.Equal(t, 7*time.Millisecond, etb.NextDelay(1))
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errs.New(errs.ErrorTypeNetwork, "temporary")
		}
		return "success", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}
