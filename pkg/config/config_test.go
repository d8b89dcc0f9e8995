package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.FolderName != "Download" {
		t.Errorf("Expected default folder name to be Download, got %s", config.FolderName)
	}
	if config.MaxRetry != 5 {
		t.Errorf("Expected default max retry to be 5, got %d", config.MaxRetry)
	}
	if config.Chunk != 10*1024*1024 {
		t.Errorf("Expected default chunk to be 10MiB, got %d", config.Chunk)
	}
	if !config.AuthorArchive || config.LiveDownload || config.DownloadRecord {
		t.Error("Unexpected default toggles")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestFromOptions(t *testing.T) {
	t.Run("recognised options", func(t *testing.T) {
		cfg, err := FromOptions(map[string]interface{}{
			"work_path":       "/tmp/xhs",
			"folder_name":     "Posts",
			"timeout":         20,
			"max_retry":       float64(2),
			"image_format":    "webp",
			"live_download":   true,
			"download_record": "true",
			"read_cookie":     3,
		})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join("/tmp/xhs", "Posts"), cfg.Root())
		assert.Equal(t, 20*time.Second, cfg.RequestTimeout())
		assert.Equal(t, 2, cfg.MaxRetry)
		assert.Equal(t, ImageFormatWEBP, cfg.ImageFormat)
		assert.True(t, cfg.LiveDownload)
		assert.True(t, cfg.DownloadRecord)
		assert.Equal(t, CookieSource("3"), cfg.ReadCookie)
	})

	t.Run("unknown option rejected", func(t *testing.T) {
		_, err := FromOptions(map[string]interface{}{"concurrency": 8})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown option "concurrency"`)
	})

	t.Run("wrong type rejected", func(t *testing.T) {
		_, err := FromOptions(map[string]interface{}{"timeout": "soon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		_, err := FromOptions(map[string]interface{}{
			"timeout":     0,
			"chunk":       -1,
			"max_retry":   -1,
			"proxy":       "ftp://proxy:21",
			"name_format": "作品标题 nonsense",
		})
		require.Error(t, err)
		for _, want := range []string{"timeout", "chunk", "max_retry", "proxy scheme", "nonsense"} {
			assert.Contains(t, err.Error(), want)
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("XHSDL_COOKIE", "a1=b2")
	t.Setenv("XHSDL_MAX_RETRY", "7")
	t.Setenv("XHSDL_VIDEO_DOWNLOAD", "false")
	t.Setenv("XHSDL_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "a1=b2", config.Cookie)
	assert.Equal(t, 7, config.MaxRetry)
	assert.False(t, config.VideoDownload)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidValue(t *testing.T) {
	t.Setenv("XHSDL_TIMEOUT", "ten")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XHSDL_TIMEOUT")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		content := "work_path: /data\nread_cookie: 2\nimage_format: JPEG\nlogging:\n  level: warn\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config := DefaultConfig()
		require.NoError(t, config.LoadFromFile(path))
		assert.Equal(t, "/data", config.WorkPath)
		assert.Equal(t, CookieSource("2"), config.ReadCookie)
		assert.Equal(t, "JPEG", config.ImageFormat)
		assert.Equal(t, "warn", config.Logging.Level)
	})

	t.Run("yaml unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("threads: 4\n"), 0644))

		err := DefaultConfig().LoadFromFile(path)
		require.Error(t, err)
	})

	t.Run("toml", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		content := "folder_name = \"XHS\"\nread_cookie = \"firefox\"\nmax_retry = 1\n\n[logging]\nlevel = \"error\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config := DefaultConfig()
		require.NoError(t, config.LoadFromFile(path))
		assert.Equal(t, "XHS", config.FolderName)
		assert.Equal(t, CookieSource("firefox"), config.ReadCookie)
		assert.Equal(t, 1, config.MaxRetry)
		assert.Equal(t, "error", config.Logging.Level)
	})

	t.Run("toml unknown key", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("threads = 4\n"), 0644))

		err := DefaultConfig().LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "threads")
	})

	t.Run("missing file", func(t *testing.T) {
		err := DefaultConfig().LoadFromFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "xhsdl.yaml")

	config := DefaultConfig()
	config.FolderMode = true
	config.ReadCookie = "chrome"
	require.NoError(t, config.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, config, loaded)
}

func TestSaveAndLoadRoundTrip_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xhsdl.toml")

	config := DefaultConfig()
	config.ReadCookie = "3"
	config.Logging.File = "/tmp/xhsdl.log"
	require.NoError(t, config.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, config, loaded)
}

func TestOptionKind(t *testing.T) {
	assert.Equal(t, "int", OptionKind("timeout"))
	assert.Equal(t, "bool", OptionKind("folder_mode"))
	assert.Equal(t, "cookie", OptionKind("read_cookie"))
	assert.Equal(t, "string", OptionKind("work_path"))
	assert.Equal(t, "", OptionKind("nope"))
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_retry: 1\ntimeout: 30\n"), 0644))
	t.Setenv("XHSDL_MAX_RETRY", "2")

	config, err := Load(path, map[string]interface{}{
		"timeout":   45,
		"log-level": "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, config.MaxRetry)
	assert.Equal(t, 45, config.Timeout)
	assert.Equal(t, "debug", config.Logging.Level)

	_, err = Load(path, map[string]interface{}{"bogus": true})
	assert.Error(t, err)
}
