package storage

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrPathTraversal is returned when a path escapes the storage root
var ErrPathTraversal = errors.New("path escapes storage root")

// illegalChars are characters not allowed in filenames on common filesystems
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00]`)

// multiSpace matches runs of whitespace, including newlines in descriptions
var multiSpace = regexp.MustCompile(`\s+`)

// multiDot matches multiple consecutive dots
var multiDot = regexp.MustCompile(`\.{2,}`)

// unprintable drops non-space control characters and zero-width runes,
// then composes the result so visually equal names compare equal.
var unprintable = transform.Chain(
	runes.Remove(runes.Predicate(func(r rune) bool {
		return (unicode.Is(unicode.Cc, r) && !unicode.IsSpace(r)) || unicode.Is(unicode.Cf, r)
	})),
	norm.NFC,
)

// SanitizeFilename makes one path component safe on common filesystems.
// The result never contains a path separator and may be empty.
func SanitizeFilename(name string) string {
	if clean, _, err := transform.String(unprintable, name); err == nil {
		name = clean
	}

	name = illegalChars.ReplaceAllString(name, " ")
	name = multiDot.ReplaceAllString(name, ".")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.Trim(name, " .")
}

// TruncateRunes shortens s to at most n runes without splitting a
// character, trimming any trailing space or dot left behind.
func TruncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " .")
}

// ValidatePath ensures the path is within the expected root directory
func ValidatePath(path, expectedRoot string) error {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(expectedRoot)

	if cleanPath == cleanRoot {
		return nil
	}
	if !strings.HasSuffix(cleanRoot, string(filepath.Separator)) {
		cleanRoot += string(filepath.Separator)
	}
	if !strings.HasPrefix(cleanPath, cleanRoot) {
		return ErrPathTraversal
	}
	return nil
}
