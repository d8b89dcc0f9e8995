package extractor

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"xhsdl/internal/downloader"
	"xhsdl/pkg/models"
)

// MetadataResolver turns a post link into a Post
type MetadataResolver interface {
	Resolve(ctx context.Context, url string) (*models.Post, error)
}

// DownloadEngine runs planned tasks and reports one result per task in
// task order
type DownloadEngine interface {
	Run(ctx context.Context, tasks []models.DownloadTask) []downloader.TaskResult
}

// RecordStore remembers completely downloaded posts
type RecordStore interface {
	Has(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string, snapshot *models.Post) error
	SaveData(ctx context.Context, post *models.Post) error
	Snapshot(ctx context.Context, id string) (*models.Post, bool, error)
	Close() error
}
