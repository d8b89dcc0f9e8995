package planner

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"xhsdl/pkg/config"
	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/models"
	"xhsdl/pkg/storage"
	"xhsdl/pkg/xhs"
)

const (
	// MaxNameRunes bounds the substituted part of a file name
	MaxNameRunes = 64

	timeLayout = "2006-01-02_15.04.05"
	liveExt    = "mov"
	videoExt   = "mp4"
)

// imageExt maps the supported image formats to file extensions
var imageExt = map[string]string{
	config.ImageFormatAuto: "webp",
	config.ImageFormatPNG:  "png",
	config.ImageFormatWEBP: "webp",
	config.ImageFormatJPEG: "jpeg",
	config.ImageFormatHEIC: "heic",
}

// Selection narrows a post to the ordinals a caller asked for. A nil or
// empty Index selects every item.
type Selection struct {
	Index []int
}

// AssetPlan is the ordered list of transfers for one post
type AssetPlan struct {
	Dir      string
	Name     string
	Tasks    []models.DownloadTask
	Skipped  []models.IndexSkip
	Warnings []string
}

// Plan turns a resolved post into download tasks. Tasks follow media
// order; a live item yields its still image before its clip.
func Plan(post *models.Post, sel Selection, cfg *config.Config) AssetPlan {
	var p AssetPlan

	format := strings.ToUpper(strings.TrimSpace(cfg.ImageFormat))
	if _, ok := imageExt[format]; !ok {
		p.Warnings = append(p.Warnings, fmt.Sprintf("unsupported image format %q, falling back to %s", cfg.ImageFormat, config.ImageFormatAuto))
		format = config.ImageFormatAuto
	}

	fields, _ := models.ParseNameFormat(cfg.NameFormat)
	p.Name = withPostID(FileName(post, fields), post.ID, fields)

	layout := storage.Layout{
		Root:          cfg.Root(),
		AuthorArchive: cfg.AuthorArchive,
		FolderMode:    cfg.FolderMode,
	}
	p.Dir = layout.Dir(post.Author.ID, post.Author.Nickname, p.Name)

	items, skipped := selectItems(post.Media, sel.Index)
	p.Skipped = skipped

	single := post.Type == models.PostTypeVideo && len(post.Media) == 1
	seen := make(map[string]bool)
	add := func(item models.MediaItem, kind models.MediaKind, url, ext string) {
		stem := p.Name
		if !single {
			stem = p.Name + "_" + strconv.Itoa(item.Ordinal)
		}
		path := uniquePath(seen, p.Dir, stem, ext)
		p.Tasks = append(p.Tasks, models.DownloadTask{
			Ordinal: item.Ordinal,
			Kind:    kind,
			URL:     url,
			Path:    path,
		})
	}

	for _, item := range items {
		switch item.Kind {
		case models.KindImage, models.KindLive:
			if cfg.ImageDownload {
				if url := imageSource(item, format); url != "" {
					add(item, models.KindImage, url, imageExt[format])
				} else {
					p.Warnings = append(p.Warnings, fmt.Sprintf("item %d has no image source", item.Ordinal))
				}
			}
			if item.Kind == models.KindLive && cfg.LiveDownload {
				if item.StreamURL != "" {
					add(item, models.KindLive, item.StreamURL, liveExt)
				} else {
					p.Warnings = append(p.Warnings, fmt.Sprintf("item %d has no live stream", item.Ordinal))
				}
			}
		case models.KindVideo:
			if !cfg.VideoDownload {
				continue
			}
			if item.StreamURL == "" {
				p.Warnings = append(p.Warnings, fmt.Sprintf("item %d has no video source", item.Ordinal))
				continue
			}
			add(item, models.KindVideo, item.StreamURL, videoExt)
		}
	}
	return p
}

// withPostID appends the post id when the template does not name one, so
// posts sharing a title never share files
func withPostID(name, id string, fields []models.NameField) string {
	for _, f := range fields {
		if f == models.FieldID {
			return name
		}
	}
	clean := storage.SanitizeFilename(id)
	if clean == "" || name == clean {
		return name
	}
	return name + "_" + clean
}

// selectItems applies an index filter. Selected items keep media order
// and duplicates collapse; ordinals outside 1..N are reported.
func selectItems(media []models.MediaItem, index []int) ([]models.MediaItem, []models.IndexSkip) {
	if len(index) == 0 {
		return media, nil
	}

	wanted := make(map[int]bool, len(index))
	var skipped []models.IndexSkip
	reported := make(map[int]bool)
	for _, i := range index {
		if i < 1 || i > len(media) {
			if !reported[i] {
				reported[i] = true
				skipped = append(skipped, models.IndexSkip{
					Index:     i,
					ErrorType: errs.ErrorTypeIndexOutOfRange,
					Reason:    fmt.Sprintf("index %d outside 1..%d", i, len(media)),
				})
			}
			continue
		}
		wanted[i] = true
	}

	var items []models.MediaItem
	for _, item := range media {
		if wanted[item.Ordinal] {
			items = append(items, item)
		}
	}
	return items, skipped
}

// imageSource picks the URL for the requested format. Items without a
// token can only be fetched as served with the page.
func imageSource(item models.MediaItem, format string) string {
	if item.ImageToken != "" {
		return xhs.ImageURL(item.ImageToken, format)
	}
	return item.DefaultURL
}

// uniquePath returns dir/stem.ext, suffixing _2, _3... on collision
func uniquePath(seen map[string]bool, dir, stem, ext string) string {
	path := filepath.Join(dir, stem+"."+ext)
	for n := 2; seen[path]; n++ {
		path = filepath.Join(dir, stem+"_"+strconv.Itoa(n)+"."+ext)
	}
	seen[path] = true
	return path
}
