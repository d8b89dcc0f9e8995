// Package storage decides where downloaded files live and writes them
// safely.
//
// Layout maps a post to its directory under the storage root (optional
// author and per-post folders). SanitizeFilename turns arbitrary post
// titles into a single safe path component. Manager hands out temporary
// paths of the form "<dest>.<uuid>.part" and promotes them with a rename,
// so a destination path only ever holds a complete file.
package storage
