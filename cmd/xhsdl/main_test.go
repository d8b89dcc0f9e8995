package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhsdl/pkg/config"
)

func TestCollectOptionFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addOptionFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--timeout", "30",
		"--folder-mode",
		"--read-cookie", "2",
		"--image-format", "jpeg",
	}))

	flags, err := collectOptionFlags(cmd)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"timeout":      30,
		"folder_mode":  true,
		"read_cookie":  "2",
		"image_format": "jpeg",
	}, flags)

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.MergeCommandLineFlags(flags))
	assert.Equal(t, "JPEG", cfg.ImageFormat)
	assert.Equal(t, config.CookieSource("2"), cfg.ReadCookie)
}

func TestMaskCookie(t *testing.T) {
	assert.Equal(t, "", maskCookie(""))
	assert.Equal(t, "***", maskCookie("a=1"))
	assert.Equal(t, "web_...=abc", maskCookie("web_session=abc"))
}

func TestPostID(t *testing.T) {
	assert.Equal(t, "67fc8571000000000b02ed97", postID("https://www.xiaohongshu.com/explore/67fc8571000000000b02ed97?xsec_token=x"))
	assert.Equal(t, "67fc8571000000000b02ed97", postID("67fc8571000000000b02ed97"))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xhsdl.toml")
	configFile = path
	t.Cleanup(func() { configFile = "" })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	require.NoError(t, runConfigInit(initCmd, nil))
	assert.Contains(t, out.String(), path)

	loaded := config.DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, config.DefaultConfig(), loaded)

	assert.Error(t, runConfigInit(initCmd, nil), "existing files are not overwritten")
}
