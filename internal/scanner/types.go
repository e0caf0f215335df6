// Package scanner discovers indexable documents in a vault. Results
// stream over a channel as the walk progresses, filtered by supported
// extensions, excluded path segments, glob patterns, optional
// .gitignore rules, and a file size cap.
package scanner

import (
	"time"
)

// FileInfo describes a discovered document.
type FileInfo struct {
	Path    string    // Relative to the vault root
	AbsPath string    // Absolute path
	Size    int64     // Size in bytes
	ModTime time.Time // Last modification time
}

// ScanOptions configures a scan.
type ScanOptions struct {
	// Root is the vault directory to scan.
	Root string

	// Extensions restricts results to these extensions (with leading
	// dot, matched case-insensitively). Empty means
	// config.SupportedExtensions.
	Extensions []string

	// IncludePatterns restricts results to matching globs (empty = all).
	IncludePatterns []string

	// ExcludePatterns hides files matching these globs.
	ExcludePatterns []string

	// ExcludedSegments hides any path containing one of these exact
	// segments. This carries the database-backed exclusion set.
	ExcludedSegments []string

	// MaxFileSize skips files larger than this many bytes
	// (0 = DefaultMaxFileSize).
	MaxFileSize int64

	// RespectGitignore additionally applies .gitignore rules found in
	// the tree.
	RespectGitignore bool

	// FollowSymlinks emits symlinked files instead of skipping them.
	FollowSymlinks bool
}

// ScanResult is one streamed scan entry: a file or a walk error.
type ScanResult struct {
	File *FileInfo
	Err  error
}

// DefaultMaxFileSize matches the config default of 50MB.
const DefaultMaxFileSize = 50 * 1024 * 1024
