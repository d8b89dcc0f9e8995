package storage

import (
	"path/filepath"
	"strings"
)

// Layout decides which directory a post's files go into
type Layout struct {
	Root          string
	AuthorArchive bool
	FolderMode    bool
}

// Dir returns the directory for a post. authorID and nickname build the
// author folder; name is the post's file name stem used in folder mode.
func (l Layout) Dir(authorID, nickname, name string) string {
	parts := []string{l.Root}
	if l.AuthorArchive {
		if folder := AuthorFolder(authorID, nickname); folder != "" {
			parts = append(parts, folder)
		}
	}
	if l.FolderMode && name != "" {
		parts = append(parts, name)
	}
	return filepath.Join(parts...)
}

// AuthorFolder is "<id>_<nickname>" with both parts sanitised
func AuthorFolder(authorID, nickname string) string {
	var parts []string
	for _, p := range []string{authorID, nickname} {
		if clean := SanitizeFilename(p); clean != "" {
			parts = append(parts, clean)
		}
	}
	return strings.Join(parts, "_")
}
