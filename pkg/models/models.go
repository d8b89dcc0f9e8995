package models

import (
	"time"

	errs "xhsdl/pkg/errors"
)

// MediaKind classifies a downloadable asset
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindLive  MediaKind = "live"
)

// PostType is the platform's own classification of a post
type PostType string

const (
	PostTypeImage PostType = "normal"
	PostTypeVideo PostType = "video"
)

// Author identifies who published a post
type Author struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// Interactions holds the engagement counters as the platform reports them
type Interactions struct {
	Likes    string `json:"likes"`
	Collects string `json:"collects"`
	Comments string `json:"comments"`
	Shares   string `json:"shares"`
}

// Post is one piece of published content. It is immutable once resolved.
type Post struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	Type         PostType       `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Author       Author         `json:"author"`
	Tags         []string       `json:"tags,omitempty"`
	PublishedAt  time.Time      `json:"published_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	IPLocation   string         `json:"ip_location,omitempty"`
	Interactions Interactions   `json:"interactions"`
	Media        []MediaItem    `json:"media"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// MediaItem is one asset of a post. Ordinal is 1-based and follows the
// order of the post's media list.
type MediaItem struct {
	Ordinal int       `json:"ordinal"`
	Kind    MediaKind `json:"kind"`
	// ImageToken identifies the still image on the CDN (image and live items)
	ImageToken string `json:"image_token,omitempty"`
	// DefaultURL is the variant the platform served with the page
	DefaultURL string `json:"default_url,omitempty"`
	// StreamURL is the video or live clip source
	StreamURL string `json:"stream_url,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// DownloadTask is one concrete transfer planned for a media item
type DownloadTask struct {
	Ordinal int       `json:"ordinal"`
	Kind    MediaKind `json:"kind"`
	URL     string    `json:"url"`
	Path    string    `json:"path"`
	// Attempts is only written by the download engine
	Attempts int `json:"attempts,omitempty"`
}

// Outcome reports how a single task finished
type Outcome struct {
	Success      bool           `json:"success"`
	BytesWritten int64          `json:"bytes_written"`
	Existed      bool           `json:"existed,omitempty"`
	ErrorType    errs.ErrorType `json:"error_type,omitempty"`
	Error        string         `json:"error,omitempty"`
	Attempts     int            `json:"attempts"`
	Duration     time.Duration  `json:"duration"`
}

// AssetResult pairs a task with its outcome
type AssetResult struct {
	Ordinal int       `json:"ordinal"`
	Kind    MediaKind `json:"kind"`
	Path    string    `json:"path"`
	URL     string    `json:"url"`
	Outcome Outcome   `json:"outcome"`
}

// IndexSkip reports a requested ordinal that could not be planned
type IndexSkip struct {
	Index     int            `json:"index"`
	ErrorType errs.ErrorType `json:"error_type"`
	Reason    string         `json:"reason"`
}

// State is the terminal state of one extraction
type State string

const (
	StateFailed          State = "failed"
	StateSkippedByRecord State = "skipped_by_record"
	StateDone            State = "done"
)

// Result is what an extraction returns to the caller
type Result struct {
	URL       string         `json:"url"`
	State     State          `json:"state"`
	ErrorType errs.ErrorType `json:"error_type,omitempty"`
	Error     string         `json:"error,omitempty"`
	Post      *Post          `json:"post,omitempty"`
	Assets    []AssetResult  `json:"assets"`
	Skipped   []IndexSkip    `json:"skipped,omitempty"`
	Warnings  []string       `json:"warnings,omitempty"`
	// Complete is true when every planned asset succeeded
	Complete bool   `json:"complete"`
	Message  string `json:"message,omitempty"`
}

// Failed returns the assets whose outcome was a failure
func (r *Result) Failed() []AssetResult {
	var failed []AssetResult
	for _, a := range r.Assets {
		if !a.Outcome.Success {
			failed = append(failed, a)
		}
	}
	return failed
}

// Partial is true for a resolved post where some assets failed
func (r *Result) Partial() bool {
	return r.State == StateDone && len(r.Failed()) > 0
}
