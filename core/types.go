// Package core provides the shared types and interfaces for modelout.
//
// This package exists to break import cycles between the root modelout
// package and internal implementation packages. The modelout package
// re-exports all public types from this package, so external users should
// import modelout directly, not modelout/core.
package core

import (
	"context"
	"errors"
)

// Sentinel errors for common failure conditions.
var (
	// ErrNotFound indicates the requested archive or object was not found.
	ErrNotFound = errors.New("modelout: not found")

	// ErrPathTraversal indicates a path traversal attack was detected.
	ErrPathTraversal = errors.New("modelout: path traversal detected")

	// ErrExtractLimits indicates extraction safety limits were exceeded.
	ErrExtractLimits = errors.New("modelout: extraction limits exceeded")

	// ErrInvalidArchive indicates the input is not a valid output bundle.
	ErrInvalidArchive = errors.New("modelout: invalid archive")

	// ErrInvalidLocation indicates the output location URL is malformed.
	ErrInvalidLocation = errors.New("modelout: invalid location")

	// ErrArtifactMissing indicates an expected output artifact was not found.
	ErrArtifactMissing = errors.New("modelout: expected artifact missing")

	// ErrChecksumMismatch indicates a downloaded bundle failed digest verification.
	ErrChecksumMismatch = errors.New("modelout: checksum mismatch")
)

// ExtractLimits defines safety limits for extraction.
type ExtractLimits struct {
	MaxFiles     int   // Maximum number of files (0 = no limit)
	MaxTotalSize int64 // Maximum total extracted size (0 = no limit)
	MaxFileSize  int64 // Maximum single file size (0 = no limit)
}

// Entry type strings as they appear in Entry.Type.
const (
	TypeReg     = "reg"
	TypeDir     = "dir"
	TypeSymlink = "symlink"
)

// Entry describes a single member of an output bundle.
type Entry struct {
	Name     string
	Type     string // "reg", "dir", "symlink"
	Size     int64
	Mode     int64
	LinkName string // Target for symlinks
}

// PathValidator validates paths for security concerns.
// This interface is implemented by internal/safepath.
type PathValidator interface {
	// ValidatePath checks if a single entry name is safe (no traversal,
	// no null bytes, not absolute). Returns ErrPathTraversal if unsafe.
	ValidatePath(name string) error

	// ValidateEntries checks if extracting the given entries to destDir is
	// safe. Every entry is checked before the caller writes anything.
	// Returns ErrPathTraversal for unsafe paths, ErrExtractLimits if
	// limits are exceeded.
	ValidateEntries(destDir string, entries []Entry, limits ExtractLimits) error

	// ValidateSymlink checks if a symlink target stays within destDir.
	// Returns ErrPathTraversal if the symlink would escape.
	ValidateSymlink(destDir, linkPath, target string) error
}

// ProgressFunc is called to report transfer progress.
// The total is -1 when the expected size is unknown.
type ProgressFunc func(bytesTransferred, totalBytes int64)

// DownloadResult describes a completed object download.
type DownloadResult struct {
	// Bytes is the number of bytes written to the destination file.
	Bytes int64
	// Digest is the sha256 digest of the downloaded content (sha256:...).
	Digest string
}

// ObjectStore provides access to remotely stored output bundles.
// This interface is implemented by internal/storage.
type ObjectStore interface {
	// Download fetches bucket/key to destPath, reporting progress if
	// progress is non-nil. The content digest is computed while copying.
	Download(ctx context.Context, bucket, key, destPath string, progress ProgressFunc) (DownloadResult, error)

	// List returns the object keys under bucket/prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
