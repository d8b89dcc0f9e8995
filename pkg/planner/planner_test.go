package planner_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhsdl/pkg/config"
	errs "xhsdl/pkg/errors"
	"xhsdl/pkg/models"
	"xhsdl/pkg/planner"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.WorkPath = t.TempDir()
	cfg.NameFormat = "title"
	cfg.AuthorArchive = false
	return cfg
}

func galleryPost() *models.Post {
	return &models.Post{
		ID:     "64f0a1b2c3d4e5f6a7b8c9d0",
		Type:   models.PostTypeImage,
		Title:  "Weekend: hiking/camping?",
		Author: models.Author{ID: "5a1b2c", Nickname: "mountain cat"},
		Media: []models.MediaItem{
			{Ordinal: 1, Kind: models.KindImage, ImageToken: "spectrum/tok1"},
			{Ordinal: 2, Kind: models.KindLive, ImageToken: "spectrum/tok2", StreamURL: "https://sns-video-bd.xhscdn.com/live2"},
			{Ordinal: 3, Kind: models.KindImage, ImageToken: "spectrum/tok3"},
			{Ordinal: 4, Kind: models.KindImage, ImageToken: "spectrum/tok4"},
			{Ordinal: 5, Kind: models.KindImage, DefaultURL: "https://sns-webpic-qc.xhscdn.com/x/y/z!nd_dft"},
		},
	}
}

func videoPost() *models.Post {
	return &models.Post{
		ID:    "65aa",
		Type:  models.PostTypeVideo,
		Title: "clip",
		Media: []models.MediaItem{
			{Ordinal: 1, Kind: models.KindVideo, StreamURL: "https://sns-video-bd.xhscdn.com/key"},
		},
	}
}

func ordinals(tasks []models.DownloadTask) []int {
	var out []int
	for _, task := range tasks {
		out = append(out, task.Ordinal)
	}
	return out
}

func TestPlan_AllItems(t *testing.T) {
	cfg := testConfig(t)
	p := planner.Plan(galleryPost(), planner.Selection{}, cfg)

	require.Len(t, p.Tasks, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ordinals(p.Tasks))
	assert.Empty(t, p.Skipped)
	assert.Empty(t, p.Warnings)

	first := p.Tasks[0]
	assert.Equal(t, models.KindImage, first.Kind)
	assert.Equal(t, "https://ci.xiaohongshu.com/spectrum/tok1?imageView2/format/png", first.URL)
	assert.Equal(t, filepath.Join(cfg.Root(), "Weekend hiking camping_64f0a1b2c3d4e5f6a7b8c9d0_1.png"), first.Path)

	// the live item is planned as its still image when live_download is off
	assert.Equal(t, models.KindImage, p.Tasks[1].Kind)
	// items without a token use the URL served with the page
	assert.Equal(t, "https://sns-webpic-qc.xhscdn.com/x/y/z!nd_dft", p.Tasks[4].URL)
}

func TestPlan_LiveDownload(t *testing.T) {
	cfg := testConfig(t)
	cfg.LiveDownload = true

	p := planner.Plan(galleryPost(), planner.Selection{Index: []int{2}}, cfg)
	require.Len(t, p.Tasks, 2)
	assert.Equal(t, models.KindImage, p.Tasks[0].Kind)
	assert.Equal(t, models.KindLive, p.Tasks[1].Kind)
	assert.Equal(t, "https://sns-video-bd.xhscdn.com/live2", p.Tasks[1].URL)
	assert.Equal(t, ".mov", filepath.Ext(p.Tasks[1].Path))
	assert.NotEqual(t, p.Tasks[0].Path, p.Tasks[1].Path)

	cfg.ImageDownload = false
	p = planner.Plan(galleryPost(), planner.Selection{}, cfg)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, models.KindLive, p.Tasks[0].Kind)
}

func TestPlan_IndexSelection(t *testing.T) {
	cfg := testConfig(t)

	p := planner.Plan(galleryPost(), planner.Selection{Index: []int{4, 1, 4, 9, 0, 9}}, cfg)

	assert.Equal(t, []int{1, 4}, ordinals(p.Tasks))
	require.Len(t, p.Skipped, 2)
	assert.Equal(t, 9, p.Skipped[0].Index)
	assert.Equal(t, 0, p.Skipped[1].Index)
	for _, s := range p.Skipped {
		assert.Equal(t, errs.ErrorTypeIndexOutOfRange, s.ErrorType)
	}
}

func TestPlan_KindToggles(t *testing.T) {
	cfg := testConfig(t)
	cfg.ImageDownload = false

	p := planner.Plan(galleryPost(), planner.Selection{}, cfg)
	assert.Empty(t, p.Tasks)
	assert.Empty(t, p.Warnings)

	cfg.VideoDownload = false
	p = planner.Plan(videoPost(), planner.Selection{}, cfg)
	assert.Empty(t, p.Tasks)
}

func TestPlan_TaskCountMatchesToggles(t *testing.T) {
	post := galleryPost()
	post.Media = append(post.Media, models.MediaItem{Ordinal: 6, Kind: models.KindVideo, StreamURL: "https://v/1"})

	cfg := testConfig(t)
	cfg.VideoDownload = false
	p := planner.Plan(post, planner.Selection{}, cfg)
	assert.Len(t, p.Tasks, len(post.Media)-1)
}

func TestPlan_ImageFormats(t *testing.T) {
	tests := []struct {
		format  string
		url     string
		ext     string
		warning bool
	}{
		{"AUTO", "https://sns-img-bd.xhscdn.com/spectrum/tok1", ".webp", false},
		{"webp", "https://ci.xiaohongshu.com/spectrum/tok1?imageView2/format/webp", ".webp", false},
		{"JPEG", "https://ci.xiaohongshu.com/spectrum/tok1?imageView2/format/jpeg", ".jpeg", false},
		{"HEIC", "https://ci.xiaohongshu.com/spectrum/tok1?imageView2/format/heic", ".heic", false},
		{"GIF", "https://sns-img-bd.xhscdn.com/spectrum/tok1", ".webp", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.ImageFormat = tt.format

			p := planner.Plan(galleryPost(), planner.Selection{Index: []int{1}}, cfg)
			require.Len(t, p.Tasks, 1)
			assert.Equal(t, tt.url, p.Tasks[0].URL)
			assert.Equal(t, tt.ext, filepath.Ext(p.Tasks[0].Path))
			if tt.warning {
				require.Len(t, p.Warnings, 1)
				assert.Contains(t, p.Warnings[0], "GIF")
			} else {
				assert.Empty(t, p.Warnings)
			}
		})
	}
}

func TestPlan_SingleVideoHasNoOrdinalSuffix(t *testing.T) {
	cfg := testConfig(t)
	p := planner.Plan(videoPost(), planner.Selection{}, cfg)

	require.Len(t, p.Tasks, 1)
	assert.Equal(t, filepath.Join(cfg.Root(), "clip_65aa.mp4"), p.Tasks[0].Path)
	assert.Equal(t, models.KindVideo, p.Tasks[0].Kind)
}

func TestPlan_PathsUniqueWhenNamesCollide(t *testing.T) {
	cfg := testConfig(t)
	cfg.NameFormat = "title desc"

	post := galleryPost()
	post.Title = "???"
	post.Description = "///"

	p := planner.Plan(post, planner.Selection{}, cfg)
	seen := make(map[string]bool)
	for _, task := range p.Tasks {
		assert.False(t, seen[task.Path], task.Path)
		seen[task.Path] = true
	}
	// nothing survived sanitising, so the id names the files
	assert.Equal(t, post.ID, p.Name)
}

func TestPlan_PathsUniqueAcrossPostsWithSameTitle(t *testing.T) {
	cfg := testConfig(t)
	cfg.NameFormat = "title desc"
	cfg.LiveDownload = true

	first := galleryPost()
	second := galleryPost()
	second.ID = "7777777777777777"

	owner := make(map[string]string)
	for _, post := range []*models.Post{first, second} {
		p := planner.Plan(post, planner.Selection{}, cfg)
		require.NotEmpty(t, p.Tasks)
		for _, task := range p.Tasks {
			if other, ok := owner[task.Path]; ok {
				assert.Equal(t, post.ID, other, "%s planned by two posts", task.Path)
			}
			owner[task.Path] = post.ID
		}
	}
	assert.Len(t, owner, 12)
}

func TestPlan_IDInTemplateIsNotRepeated(t *testing.T) {
	cfg := testConfig(t)
	cfg.NameFormat = "id title"

	p := planner.Plan(galleryPost(), planner.Selection{Index: []int{1}}, cfg)
	assert.Equal(t, "64f0a1b2c3d4e5f6a7b8c9d0_Weekend hiking camping", p.Name)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, filepath.Join(cfg.Root(), "64f0a1b2c3d4e5f6a7b8c9d0_Weekend hiking camping_1.png"), p.Tasks[0].Path)
}

func TestPlan_Layout(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthorArchive = true
	cfg.FolderMode = true

	p := planner.Plan(galleryPost(), planner.Selection{Index: []int{1}}, cfg)
	want := filepath.Join(cfg.Root(), "5a1b2c_mountain cat", "Weekend hiking camping_64f0a1b2c3d4e5f6a7b8c9d0")
	assert.Equal(t, want, p.Dir)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, want, filepath.Dir(p.Tasks[0].Path))
}

func TestFileName(t *testing.T) {
	post := &models.Post{
		ID:           "abc",
		Type:         models.PostTypeVideo,
		Title:        "标题",
		Description:  "line one\nline two",
		Author:       models.Author{ID: "u1", Nickname: "作者"},
		Tags:         []string{"travel", "food"},
		PublishedAt:  time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
		Interactions: models.Interactions{Likes: "1.2万"},
	}

	fields, unknown := models.ParseNameFormat("发布时间 作者昵称 作品标题")
	require.Empty(t, unknown)
	assert.Equal(t, "2024-03-05_14.07.09_作者_标题", planner.FileName(post, fields))

	fields, _ = models.ParseNameFormat("type desc likes tags updated")
	assert.Equal(t, "视频_line one line two_1.2万_travel food", planner.FileName(post, fields))

	post.Title = "一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一二三四五"
	fields, _ = models.ParseNameFormat("title")
	assert.Len(t, []rune(planner.FileName(post, fields)), planner.MaxNameRunes)
}
