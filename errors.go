package modelout

import "github.com/havenml/modelout/core"

// Sentinel errors for common failure conditions.
// Re-exported from core package.
var (
	// ErrNotFound indicates the requested archive or object was not found.
	ErrNotFound = core.ErrNotFound

	// ErrPathTraversal indicates a path traversal attack was detected.
	ErrPathTraversal = core.ErrPathTraversal

	// ErrExtractLimits indicates extraction safety limits were exceeded.
	ErrExtractLimits = core.ErrExtractLimits

	// ErrInvalidArchive indicates the input is not a valid output bundle.
	ErrInvalidArchive = core.ErrInvalidArchive

	// ErrInvalidLocation indicates the output location URL is malformed.
	ErrInvalidLocation = core.ErrInvalidLocation

	// ErrArtifactMissing indicates an expected output artifact was not found.
	ErrArtifactMissing = core.ErrArtifactMissing

	// ErrChecksumMismatch indicates a downloaded bundle failed digest verification.
	ErrChecksumMismatch = core.ErrChecksumMismatch
)
