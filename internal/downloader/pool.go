package downloader

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/logger"
	"xhsdl/pkg/models"
	"xhsdl/pkg/ratelimit"
	"xhsdl/pkg/retry"
	"xhsdl/pkg/storage"
)

const (
	// DefaultConcurrency bounds simultaneous transfers
	DefaultConcurrency = 4
	// DefaultChunkSize is used when Config.ChunkSize is not positive
	DefaultChunkSize = 1 << 20
	// DefaultIdleTimeout aborts a transfer that stops delivering data
	DefaultIdleTimeout = 30 * time.Second
)

// Config holds the settings shared by every transfer
type Config struct {
	UserAgent string
	// Cookie is only sent to platform hosts
	Cookie      string
	ChunkSize   int
	MaxRetry    int
	Concurrency int
	IdleTimeout time.Duration
	Backoff     retry.BackoffStrategy
	// Limiter paces transfers; nil means no pacing
	Limiter ratelimit.Limiter
}

// TaskResult pairs a task with how it finished. Task.Attempts holds the
// number of attempts used.
type TaskResult struct {
	Task    models.DownloadTask
	Outcome models.Outcome
}

// Asset converts the result for reporting
func (r TaskResult) Asset() models.AssetResult {
	return models.AssetResult{
		Ordinal: r.Task.Ordinal,
		Kind:    r.Task.Kind,
		Path:    r.Task.Path,
		URL:     r.Task.URL,
		Outcome: r.Outcome,
	}
}

// Engine downloads tasks with a bounded pool of workers
type Engine struct {
	client  *http.Client
	storage *storage.Manager
	cfg     Config
	logger  logger.Logger
}

// NewEngine creates a download engine writing below store's root.
// client should carry the proxy and connect timeouts but no overall
// timeout, since large files can legitimately take long.
func NewEngine(client *http.Client, store *storage.Manager, cfg Config, log logger.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.Unlimited{}
	}
	return &Engine{client: client, storage: store, cfg: cfg, logger: log}
}

// Concurrency returns the number of workers Run starts
func (e *Engine) Concurrency() int {
	return e.cfg.Concurrency
}

// Run downloads every task and returns one result per task in task order,
// whatever order they complete in. A failed task never stops the others.
// Cancelling ctx aborts in-flight transfers; tasks not yet started are
// reported as canceled.
func (e *Engine) Run(ctx context.Context, tasks []models.DownloadTask) []TaskResult {
	results := make([]TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := e.cfg.Concurrency
	if workers > len(tasks) {
		workers = len(tasks)
	}
	logger.LogComponentStart(e.logger, "download_engine", map[string]interface{}{
		"tasks":   len(tasks),
		"workers": workers,
	})

	started := make([]bool, len(tasks))
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range tasks {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				started[i] = true
				results[i] = e.process(ctx, w, tasks[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range tasks {
		if !started[i] {
			results[i] = TaskResult{
				Task: tasks[i],
				Outcome: models.Outcome{
					ErrorType: errs.ErrorTypeCanceled,
					Error:     "canceled before start",
				},
			}
		}
	}

	logger.LogComponentStop(e.logger, "download_engine", "all tasks finished")
	return results
}

// process runs one task and turns its error into an outcome
func (e *Engine) process(ctx context.Context, workerID int, task models.DownloadTask) TaskResult {
	start := time.Now()
	log := e.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"ordinal":   task.Ordinal,
		"path":      task.Path,
	})
	log.Debug("Worker processing task")

	written, existed, attempts, err := e.fetch(ctx, task, log)
	task.Attempts = attempts

	outcome := models.Outcome{
		BytesWritten: written,
		Existed:      existed,
		Attempts:     attempts,
		Duration:     time.Since(start),
	}
	if err != nil {
		outcome.ErrorType = errs.TypeOf(err)
		outcome.Error = err.Error()
		outcome.BytesWritten = 0
	} else {
		outcome.Success = true
	}
	return TaskResult{Task: task, Outcome: outcome}
}
