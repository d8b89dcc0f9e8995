package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "token %d", i+1)
	}
	assert.False(t, tb.Allow())

	time.Sleep(250 * time.Millisecond)
	assert.True(t, tb.Allow())

	tb.tokens = 0
	tb.Reset()
	assert.Equal(t, tb.capacity, tb.tokens)
}

func TestTokenBucketWaitBlocksUntilRefill(t *testing.T) {
	tb := NewTokenBucket(1, 100*time.Millisecond)
	require.True(t, tb.Allow())

	start := time.Now()
	require.NoError(t, tb.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitHonoursCancellation(t *testing.T) {
	for name, l := range map[string]Limiter{
		"token bucket":   NewTokenBucket(1, time.Hour),
		"sliding window": NewSlidingWindow(1, time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			require.True(t, l.Allow())

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()

			err := l.Wait(ctx)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, sw.Allow(), "request %d", i+1)
	}
	assert.False(t, sw.Allow())

	time.Sleep(250 * time.Millisecond)
	assert.True(t, sw.Allow())

	sw.Reset()
	assert.Empty(t, sw.requests)
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
	assert.NoError(t, l.Wait(context.Background()))
}
