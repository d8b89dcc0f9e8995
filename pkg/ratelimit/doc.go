// Package ratelimit paces requests to the platform.
//
// TokenBucket refills its whole capacity once per period and suits the
// page requests made while resolving posts. SlidingWindow tracks every
// request inside a moving window and paces media downloads. Both block
// in Wait until a slot frees up or the context is cancelled.
//
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
