// Package retry provides backoff and retry logic for transient failures
// while resolving posts and downloading media.
//
// Only errors typed as transient (network, rate_limit, server_error) are
// retried by default. A session's max_retry maps to MaxAttempts through
// FromMaxRetry, so max_retry=0 performs exactly one attempt.
//
//	cfg := retry.FromMaxRetry(5, nil, log)
//	err := retry.Do(ctx, func() error {
//		return client.Fetch(ctx, url)
//	}, cfg)
//
// ErrorTypeBackoff picks a longer delay for rate limiting than for plain
// network failures.
package retry
