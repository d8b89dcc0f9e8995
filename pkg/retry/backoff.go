package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "xhsdl/pkg/errors"
)

// BackoffStrategy decides how long to sleep before retry number attempt
// (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
	Reset()
}

// ErrorAwareBackoff picks a delay from the failure that caused the retry
type ErrorAwareBackoff interface {
	BackoffStrategy
	DelayFor(attempt int, err error) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier per attempt up to
// MaxDelay. JitterFactor (0..1) spreads concurrent downloads that failed
// together.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff returns the backoff used for untyped failures
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}
	return jitter(delay, eb.JitterFactor)
}

func (eb *ExponentialBackoff) Reset() {}

// jitter moves delay by up to ±factor of itself
func jitter(delay, factor float64) time.Duration {
	if factor > 0 {
		spread := delay * factor
		delay += rand.Float64()*2*spread - spread
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// ConstantBackoff always waits Delay
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

func (cb *ConstantBackoff) Reset() {}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorTypeBackoff chooses a strategy by the failure's error type. Rate
// limited requests back off longest.
type ErrorTypeBackoff struct {
	PerType map[errs.ErrorType]BackoffStrategy
	Default BackoffStrategy
}

// NewErrorTypeBackoff returns the backoff shared by page and media requests
func NewErrorTypeBackoff() *ErrorTypeBackoff {
	return &ErrorTypeBackoff{
		PerType: map[errs.ErrorType]BackoffStrategy{
			errs.ErrorTypeNetwork: &ExponentialBackoff{
				BaseDelay:    time.Second,
				MaxDelay:     30 * time.Second,
				Multiplier:   2.0,
				JitterFactor: 0.2,
			},
			errs.ErrorTypeRateLimit: &ExponentialBackoff{
				BaseDelay:    5 * time.Second,
				MaxDelay:     2 * time.Minute,
				Multiplier:   1.5,
				JitterFactor: 0.3,
			},
			errs.ErrorTypeServerError: &ExponentialBackoff{
				BaseDelay:    2 * time.Second,
				MaxDelay:     time.Minute,
				Multiplier:   2.0,
				JitterFactor: 0.1,
			},
		},
		Default: DefaultExponentialBackoff(),
	}
}

// For returns the strategy used for errorType
func (etb *ErrorTypeBackoff) For(errorType errs.ErrorType) BackoffStrategy {
	if b, ok := etb.PerType[errorType]; ok {
		return b
	}
	return etb.Default
}

func (etb *ErrorTypeBackoff) DelayFor(attempt int, err error) time.Duration {
	return etb.For(errs.TypeOf(err)).NextDelay(attempt)
}

func (etb *ErrorTypeBackoff) NextDelay(attempt int) time.Duration {
	return etb.Default.NextDelay(attempt)
}

func (etb *ErrorTypeBackoff) Reset() {
	for _, b := range etb.PerType {
		b.Reset()
	}
	etb.Default.Reset()
}
