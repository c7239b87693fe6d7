package safepath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenml/modelout/core"
)

func TestValidator_ValidatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "simple file",
			path:    "model.pb",
			wantErr: nil,
		},
		{
			name:    "nested path",
			path:    "checkpoints/epoch-3/weights.bin",
			wantErr: nil,
		},
		{
			name:    "dot prefix",
			path:    "./rank-0",
			wantErr: nil,
		},
		{
			name:    "single dot component",
			path:    "logs/./train.log",
			wantErr: nil,
		},
		{
			name:    "empty name is the destination itself",
			path:    "",
			wantErr: nil,
		},
		{
			name:    "dot name is the destination itself",
			path:    ".",
			wantErr: nil,
		},
		{
			name:    "parent traversal",
			path:    "../evil.txt",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "traversal through legitimate subdir",
			path:    "subdir/../../escape.txt",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "deep traversal",
			path:    "a/b/../../../../etc/passwd",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "absolute path",
			path:    "/etc/passwd",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "windows drive letter",
			path:    `C:\Windows\system32`,
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "null byte",
			path:    "model\x00.pb",
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "interior dotdot that does not escape",
			path:    "subdir/../other.txt",
			wantErr: nil,
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.ValidatePath(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		destDir string
		entries []core.Entry
		limits  core.ExtractLimits
		wantErr error
	}{
		{
			name:    "valid extraction no limits",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "rank-0", Type: core.TypeReg, Size: 12},
				{Name: "model/saved_model.pb", Type: core.TypeReg, Size: 2048},
			},
			wantErr: nil,
		},
		{
			name:    "empty entries",
			destDir: "/tmp/extract",
			entries: []core.Entry{},
			wantErr: nil,
		},
		{
			name:    "parent traversal rejected",
			destDir: "/tmp/safe",
			entries: []core.Entry{
				{Name: "../evil.txt", Type: core.TypeReg, Size: 10},
			},
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "traversal through subdir rejected",
			destDir: "/tmp/safe",
			entries: []core.Entry{
				{Name: "subdir/../../escape.txt", Type: core.TypeReg, Size: 10},
			},
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "absolute entry rejected",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "/etc/passwd", Type: core.TypeReg, Size: 10},
			},
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "textual prefix sibling is not containment",
			destDir: "/tmp/out",
			entries: []core.Entry{
				{Name: "../outside/file.txt", Type: core.TypeReg, Size: 10},
			},
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "symlink escaping via target rejected",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "link", Type: core.TypeSymlink, LinkName: "../../etc/passwd"},
			},
			wantErr: core.ErrPathTraversal,
		},
		{
			name:    "symlink with safe relative target",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "model/current", Type: core.TypeSymlink, LinkName: "../checkpoints"},
				{Name: "checkpoints", Type: core.TypeDir},
			},
			wantErr: nil,
		},
		{
			name:    "exceeds max files",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "a", Type: core.TypeReg, Size: 1},
				{Name: "b", Type: core.TypeReg, Size: 1},
				{Name: "c", Type: core.TypeReg, Size: 1},
			},
			limits:  core.ExtractLimits{MaxFiles: 2},
			wantErr: core.ErrExtractLimits,
		},
		{
			name:    "exactly at max files limit",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "a", Type: core.TypeReg, Size: 1},
				{Name: "b", Type: core.TypeReg, Size: 1},
			},
			limits:  core.ExtractLimits{MaxFiles: 2},
			wantErr: nil,
		},
		{
			name:    "directories and symlinks not counted in file limit",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "d1", Type: core.TypeDir},
				{Name: "d2", Type: core.TypeDir},
				{Name: "l1", Type: core.TypeSymlink, LinkName: "d1"},
				{Name: "f1", Type: core.TypeReg, Size: 1},
			},
			limits:  core.ExtractLimits{MaxFiles: 1},
			wantErr: nil,
		},
		{
			name:    "exceeds max total size",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "a", Type: core.TypeReg, Size: 600},
				{Name: "b", Type: core.TypeReg, Size: 500},
			},
			limits:  core.ExtractLimits{MaxTotalSize: 1000},
			wantErr: core.ErrExtractLimits,
		},
		{
			name:    "exceeds max file size",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "big.bin", Type: core.TypeReg, Size: 1 << 20},
			},
			limits:  core.ExtractLimits{MaxFileSize: 1 << 10},
			wantErr: core.ErrExtractLimits,
		},
		{
			name:    "negative size rejected",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "bad", Type: core.TypeReg, Size: -1},
			},
			wantErr: core.ErrExtractLimits,
		},
		{
			name:    "size overflow rejected",
			destDir: "/tmp/extract",
			entries: []core.Entry{
				{Name: "a", Type: core.TypeReg, Size: math.MaxInt64},
				{Name: "b", Type: core.TypeReg, Size: 1},
			},
			wantErr: core.ErrExtractLimits,
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.ValidateEntries(tt.destDir, tt.entries, tt.limits)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateSymlink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		destDir  string
		linkPath string
		target   string
		wantErr  error
	}{
		{
			name:     "sibling target",
			destDir:  "/tmp/extract",
			linkPath: "current",
			target:   "model-v2",
			wantErr:  nil,
		},
		{
			name:     "target in parent still inside dest",
			destDir:  "/tmp/extract",
			linkPath: "model/current",
			target:   "../checkpoints/latest",
			wantErr:  nil,
		},
		{
			name:     "absolute target",
			destDir:  "/tmp/extract",
			linkPath: "passwd",
			target:   "/etc/passwd",
			wantErr:  core.ErrPathTraversal,
		},
		{
			name:     "target escapes dest",
			destDir:  "/tmp/extract",
			linkPath: "link",
			target:   "../../etc/passwd",
			wantErr:  core.ErrPathTraversal,
		},
		{
			name:     "empty target",
			destDir:  "/tmp/extract",
			linkPath: "link",
			target:   "",
			wantErr:  core.ErrPathTraversal,
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.ValidateSymlink(tt.destDir, tt.linkPath, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithin(t *testing.T) {
	t.Parallel()

	// The classic string-prefix false negative: /tmp/out is a textual prefix
	// of /tmp/outside but not a path ancestor.
	require.False(t, within("/tmp/out", "/tmp/outside/file.txt"))
	require.True(t, within("/tmp/out", "/tmp/out"))
	require.True(t, within("/tmp/out", "/tmp/out/sub/file.txt"))
	require.False(t, within("/tmp/out", "/tmp"))
}
