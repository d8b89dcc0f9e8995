package extractor

import (
	"net/http"

	"xhsdl/pkg/cookie"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/ratelimit"
	"xhsdl/pkg/retry"
)

// Option customises an Extractor
type Option func(*options)

type options struct {
	httpClient    *http.Client
	backoff       retry.BackoffStrategy
	concurrency   int
	browserReader cookie.BrowserReader
	logger        logger.Logger
	records       RecordStore
	pageLimiter   ratelimit.Limiter
	mediaLimiter  ratelimit.Limiter
	resolver      MetadataResolver
	engine        DownloadEngine
}

// WithHTTPClient sends page requests and downloads through client
// instead of one built from the proxy and timeout options
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithBackoff sets the delay policy between retries
func WithBackoff(b retry.BackoffStrategy) Option {
	return func(o *options) { o.backoff = b }
}

// WithConcurrency bounds simultaneous downloads
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithBrowserReader replaces the reader used for read_cookie
func WithBrowserReader(r cookie.BrowserReader) Option {
	return func(o *options) { o.browserReader = r }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecordStore replaces the SQLite record store. The extractor closes
// it on Close.
func WithRecordStore(s RecordStore) Option {
	return func(o *options) { o.records = s }
}

// WithRateLimiter paces post page requests
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(o *options) { o.pageLimiter = l }
}

// WithDownloadRateLimiter paces media downloads
func WithDownloadRateLimiter(l ratelimit.Limiter) Option {
	return func(o *options) { o.mediaLimiter = l }
}

// WithResolver replaces the metadata resolver
func WithResolver(r MetadataResolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithEngine replaces the download engine
func WithEngine(e DownloadEngine) Option {
	return func(o *options) { o.engine = e }
}
