// Package safepath provides path validation for secure bundle extraction.
//
// Output bundles are produced by remote training jobs and are treated as
// semi-trusted input: a crafted entry name (or symlink target) must never
// cause a write outside the extraction directory.
package safepath

import (
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strings"

	"github.com/havenml/modelout/core"
)

// Compile-time interface implementation check.
var _ core.PathValidator = (*Validator)(nil)

// Validator implements core.PathValidator.
type Validator struct{}

// NewValidator creates a new PathValidator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePath checks if a single entry name is safe.
//
// An empty name or "." resolves to the destination directory itself and is
// allowed. Null bytes, absolute names, and any name whose cleaned form
// escapes upward are rejected.
func (v *Validator) ValidatePath(name string) error {
	if name == "" || name == "." {
		return nil
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("null byte in %q: %w", name, core.ErrPathTraversal)
	}
	if isAbsolute(name) {
		return fmt.Errorf("absolute path %q: %w", name, core.ErrPathTraversal)
	}
	if containsTraversal(name) {
		return fmt.Errorf("traversal in %q: %w", name, core.ErrPathTraversal)
	}
	return nil
}

// ValidateEntries checks every entry before anything is written. Entry names
// are resolved against destDir and containment is decided on path components
// (filepath.Rel), never on raw string prefixes: /tmp/out must not be treated
// as an ancestor of /tmp/outside.
func (v *Validator) ValidateEntries(destDir string, entries []core.Entry, limits core.ExtractLimits) error {
	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	var fileCount int
	var totalSize int64

	for _, e := range entries {
		if err := v.ValidatePath(e.Name); err != nil {
			return err
		}

		target := filepath.Join(absDir, filepath.FromSlash(e.Name))
		if !within(absDir, target) {
			return fmt.Errorf("entry %q resolves outside %s: %w", e.Name, destDir, core.ErrPathTraversal)
		}

		if e.Type == core.TypeSymlink {
			if err := v.ValidateSymlink(destDir, e.Name, e.LinkName); err != nil {
				return err
			}
		}

		if e.Type != core.TypeReg {
			continue
		}
		if e.Size < 0 {
			return core.ErrExtractLimits
		}
		fileCount++
		if limits.MaxFiles > 0 && fileCount > limits.MaxFiles {
			return core.ErrExtractLimits
		}
		if limits.MaxFileSize > 0 && e.Size > limits.MaxFileSize {
			return core.ErrExtractLimits
		}
		if totalSize > math.MaxInt64-e.Size {
			return core.ErrExtractLimits
		}
		totalSize += e.Size
		if limits.MaxTotalSize > 0 && totalSize > limits.MaxTotalSize {
			return core.ErrExtractLimits
		}
	}

	return nil
}

// ValidateSymlink checks if a symlink target is safe. The target is resolved
// relative to the link's own parent directory; absolute targets and targets
// that climb out of destDir are rejected.
func (v *Validator) ValidateSymlink(destDir, linkPath, target string) error {
	if target == "" {
		return fmt.Errorf("empty symlink target for %q: %w", linkPath, core.ErrPathTraversal)
	}
	if isAbsolute(target) {
		return fmt.Errorf("absolute symlink target %q for %q: %w", target, linkPath, core.ErrPathTraversal)
	}

	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	linkParent := filepath.Dir(filepath.Join(absDir, filepath.FromSlash(linkPath)))
	resolved := filepath.Join(linkParent, filepath.FromSlash(target))
	if !within(absDir, resolved) {
		return fmt.Errorf("symlink %q -> %q escapes %s: %w", linkPath, target, destDir, core.ErrPathTraversal)
	}
	return nil
}

// within reports whether target is lexically contained in dir (or equal to
// it). Both paths must already be absolute and cleaned.
func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// containsTraversal reports whether the cleaned slash-path escapes upward.
func containsTraversal(name string) bool {
	clean := path.Clean(name)
	return clean == ".." || strings.HasPrefix(clean, "../")
}

// isAbsolute checks both slash-path and platform absoluteness, plus Windows
// volume names that filepath.IsAbs alone would miss on other platforms.
func isAbsolute(name string) bool {
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return true
	}
	if filepath.IsAbs(name) {
		return true
	}
	// Windows drive letter (C:...) in an archive built elsewhere.
	if len(name) >= 2 && name[1] == ':' &&
		(('a' <= name[0] && name[0] <= 'z') || ('A' <= name[0] && name[0] <= 'Z')) {
		return true
	}
	return false
}
