package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"xhsdl/internal/downloader"
	"xhsdl/pkg/config"
	"xhsdl/pkg/cookie"
	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/i18n"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
	"xhsdl/pkg/planner"
	"xhsdl/pkg/ratelimit"
	"xhsdl/pkg/record"
	"xhsdl/pkg/retry"
	"xhsdl/pkg/storage"
	"xhsdl/pkg/xhs"
)

const (
	pageRequestsPerMinute  = 60
	mediaRequestsPerMinute = 300
)

// Extractor resolves posts and downloads their media. It is built once
// per session and must be closed.
type Extractor struct {
	cfg      *config.Config
	resolver MetadataResolver
	engine   DownloadEngine
	records  RecordStore
	printer  *i18n.Printer
	logger   logger.Logger

	httpClient *http.Client
	warnings   []string
	closeOnce  sync.Once
	closeErr   error
}

// New validates cfg, resolves the session cookie and opens the record
// store. Only configuration problems are returned as errors; a browser
// cookie that cannot be read is logged and the session continues
// without one.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Extractor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.GetLogger()
	}
	log := o.logger

	e := &Extractor{
		cfg:     cfg,
		printer: i18n.New(cfg.Language),
		logger:  log,
	}

	cookieHeader, err := e.resolveCookie(ctx, o)
	if err != nil {
		return nil, err
	}

	pageClient, mediaClient, err := buildClients(cfg, o.httpClient)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	e.httpClient = pageClient

	retryCfg := retry.FromMaxRetry(cfg.MaxRetry, o.backoff, log)

	e.resolver = o.resolver
	if e.resolver == nil {
		limiter := o.pageLimiter
		if limiter == nil {
			limiter = ratelimit.NewTokenBucket(pageRequestsPerMinute, time.Minute)
		}
		client, err := xhs.NewClient(xhs.ClientOptions{
			UserAgent:  cfg.UserAgent,
			Cookie:     cookieHeader,
			HTTPClient: pageClient,
			Limiter:    limiter,
		}, log)
		if err != nil {
			return nil, err
		}
		e.resolver = xhs.NewResolver(client, retryCfg, log)
	}

	e.engine = o.engine
	if e.engine == nil {
		store, err := storage.NewManager(cfg.Root())
		if err != nil {
			return nil, err
		}
		limiter := o.mediaLimiter
		if limiter == nil {
			limiter = ratelimit.NewSlidingWindow(mediaRequestsPerMinute, time.Minute)
		}
		e.engine = downloader.NewEngine(mediaClient, store, downloader.Config{
			UserAgent:   cfg.UserAgent,
			Cookie:      cookieHeader,
			ChunkSize:   cfg.Chunk,
			MaxRetry:    cfg.MaxRetry,
			Concurrency: o.concurrency,
			IdleTimeout: idleTimeout(cfg),
			Backoff:     o.backoff,
			Limiter:     limiter,
		}, log)
	}

	e.records = o.records
	if e.records == nil {
		store, err := record.Open(ctx, record.Options{
			Root:           cfg.Root(),
			DownloadRecord: cfg.DownloadRecord,
			RecordData:     cfg.RecordData,
		}, log)
		if err != nil {
			return nil, err
		}
		e.records = store
	}

	logger.LogComponentStart(log, "extractor", map[string]interface{}{
		"root":            cfg.Root(),
		"cookie":          cookieHeader != "",
		"download_record": cfg.DownloadRecord,
		"language":        e.printer.Tag().String(),
	})
	return e, nil
}

// resolveCookie returns the cookie header for the session. An unreadable
// browser store degrades to no cookie.
func (e *Extractor) resolveCookie(ctx context.Context, o *options) (string, error) {
	reader := o.browserReader
	if reader == nil {
		reader = cookie.NewStoreReader()
	}
	provider := cookie.NewProvider(reader, xhs.CookieDomain, e.logger)

	header, err := provider.Resolve(ctx, e.cfg.Cookie, string(e.cfg.ReadCookie))
	switch {
	case err == nil:
		return header, nil
	case errors.Is(err, cookie.ErrUnsupportedBrowser):
		return "", fmt.Errorf("configuration validation failed: read_cookie: %w", err)
	case errs.Is(err, errs.ErrorTypeCookieUnavailable):
		msg := e.printer.Sprintf(i18n.CookieUnavailable, err.Error())
		e.warnings = append(e.warnings, msg)
		e.logger.WithError(err).Warn("Browser cookie unavailable, continuing anonymously")
		return "", nil
	default:
		return "", err
	}
}

// buildClients returns the page client and the download client. Both
// share one transport; only page requests carry an overall timeout.
func buildClients(cfg *config.Config, custom *http.Client) (*http.Client, *http.Client, error) {
	if custom != nil {
		return custom, custom, nil
	}
	transport, err := xhs.NewTransport(cfg.Proxy, cfg.RequestTimeout())
	if err != nil {
		return nil, nil, err
	}
	return &http.Client{Transport: transport, Timeout: cfg.RequestTimeout()}, &http.Client{Transport: transport}, nil
}

// idleTimeout is how long a download may stall before the attempt fails
func idleTimeout(cfg *config.Config) time.Duration {
	if d := 3 * cfg.RequestTimeout(); d > 0 {
		return d
	}
	return downloader.DefaultIdleTimeout
}

// Warnings returns session level warnings such as an unreadable browser
// cookie store
func (e *Extractor) Warnings() []string {
	return append([]string(nil), e.warnings...)
}

// Config returns the session configuration
func (e *Extractor) Config() *config.Config {
	return e.cfg
}

// Printer returns the message printer for the configured language
func (e *Extractor) Printer() *i18n.Printer {
	return e.printer
}

// Extract runs one post through the pipeline. It never returns an error:
// resolution failures, skips and per-asset failures are all reported in
// the result. With download false only metadata is fetched and the
// record store is never marked. index selects 1-based media ordinals;
// empty selects everything.
func (e *Extractor) Extract(ctx context.Context, url string, download bool, index []int) *models.Result {
	res := &models.Result{URL: url, Assets: []models.AssetResult{}}
	log := e.logger.WithField("url", url)

	post, err := e.resolver.Resolve(ctx, url)
	if err != nil {
		res.State = models.StateFailed
		res.ErrorType = errs.TypeOf(err)
		res.Error = err.Error()
		res.Message = e.printer.Sprintf(i18n.ResolveFailed, url, err.Error())
		log.WithError(err).WithField("error_type", string(res.ErrorType)).Warn("Post could not be resolved")
		return res
	}
	res.Post = post
	log = log.WithField("post_id", post.ID)

	if err := e.records.SaveData(ctx, post); err != nil {
		log.WithError(err).Warn("Failed to save post snapshot")
	}

	if !download {
		res.State = models.StateDone
		res.Message = e.printer.Sprintf(i18n.MetadataOnly, post.ID)
		return res
	}

	done, err := e.records.Has(ctx, post.ID)
	if err != nil {
		log.WithError(err).Warn("Download record lookup failed, downloading anyway")
	}
	if done {
		res.State = models.StateSkippedByRecord
		res.Complete = true
		if snapshot, ok, err := e.records.Snapshot(ctx, post.ID); err == nil && ok {
			res.Post = snapshot
		}
		res.Message = e.printer.Sprintf(i18n.SkippedByRecord, post.ID)
		log.Info("Post already downloaded, skipping")
		return res
	}

	plan := planner.Plan(post, planner.Selection{Index: index}, e.cfg)
	res.Skipped = plan.Skipped
	res.Warnings = plan.Warnings
	for _, skip := range plan.Skipped {
		log.WithField("index", skip.Index).Warn("Requested index out of range")
	}
	for _, w := range plan.Warnings {
		log.Warn(w)
	}

	res.State = models.StateDone
	if len(plan.Tasks) == 0 {
		res.Message = e.printer.Sprintf(i18n.NothingPlanned, post.ID)
		return res
	}

	results := e.engine.Run(ctx, plan.Tasks)
	failed := 0
	for _, r := range results {
		asset := r.Asset()
		if !asset.Outcome.Success {
			failed++
		}
		logger.LogAsset(log, post.ID, asset)
		res.Assets = append(res.Assets, asset)
	}

	if failed > 0 {
		res.Message = e.printer.Sprintf(i18n.DownloadPartial, post.ID, len(results)-failed, len(results), failed)
		return res
	}

	res.Complete = true
	res.Message = e.printer.Sprintf(i18n.DownloadComplete, post.ID, len(results), len(results))

	// a selection may leave items out, so only whole posts are recorded
	if len(index) == 0 {
		if err := e.records.Mark(ctx, post.ID, post); err != nil {
			log.WithError(err).Warn("Failed to record download")
		}
	}
	return res
}

// ExtractAll runs every post link found in text, one after another. Text
// without any link yields a single failed result.
func (e *Extractor) ExtractAll(ctx context.Context, text string, download bool, index []int) []*models.Result {
	links := xhs.ExtractLinks(text)
	if len(links) == 0 {
		return []*models.Result{e.Extract(ctx, text, download, index)}
	}

	results := make([]*models.Result, 0, len(links))
	for _, link := range links {
		results = append(results, e.Extract(ctx, link, download, index))
	}
	return results
}

// Close flushes and closes the record store and releases idle
// connections. Calling it more than once is safe.
func (e *Extractor) Close() error {
	e.closeOnce.Do(func() {
		if e.records != nil {
			e.closeErr = e.records.Close()
		}
		if e.httpClient != nil {
			e.httpClient.CloseIdleConnections()
		}
		logger.LogComponentStop(e.logger, "extractor", "closed")
	})
	return e.closeErr
}
