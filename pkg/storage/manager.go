package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	errs "xhsdl/pkg/errors"
)

// TempSuffix marks in-progress downloads
const TempSuffix = ".part"

// Manager owns the storage root. Every file it creates is written to a
// temporary sibling first and only renamed into place when complete.
type Manager struct {
	root string
}

// NewManager creates the root directory if needed
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create storage root")
	}
	return &Manager{root: root}, nil
}

// Root returns the storage root
func (m *Manager) Root() string {
	return m.root
}

// ExistingSize reports the size of dest when it exists as a non-empty file
func (m *Manager) ExistingSize(dest string) (int64, bool) {
	info, err := os.Stat(dest)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return 0, false
	}
	return info.Size(), true
}

// TempPath returns a fresh temporary path next to dest
func (m *Manager) TempPath(dest string) string {
	return fmt.Sprintf("%s.%s%s", dest, uuid.NewString(), TempSuffix)
}

// OpenTemp opens the temporary file for writing. With resume set the file
// is appended to, otherwise it is truncated. The returned offset is the
// number of bytes already present.
func (m *Manager) OpenTemp(dest, tempPath string, resume bool) (*os.File, int64, error) {
	if err := ValidatePath(dest, m.root); err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeStorage, err, dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create directory")
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resume {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(tempPath, flags, 0644)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create temporary file")
	}

	var offset int64
	if resume {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, errs.Wrap(errs.ErrorTypeStorage, err, "failed to stat temporary file")
		}
		offset = info.Size()
	}
	return f, offset, nil
}

// TempSize returns how many bytes a temporary file holds
func (m *Manager) TempSize(tempPath string) int64 {
	info, err := os.Stat(tempPath)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Promote atomically moves a finished temporary file to dest
func (m *Manager) Promote(tempPath, dest string) error {
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to rename temporary file")
	}
	return nil
}

// Discard removes a temporary file; a missing file is not an error
func (m *Manager) Discard(tempPath string) {
	if tempPath == "" {
		return
	}
	_ = os.Remove(tempPath)
}
