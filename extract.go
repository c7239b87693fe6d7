package modelout

import (
	"context"
	"fmt"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/archive"
)

// Extract unpacks a local output bundle into destDir.
//
// Extraction is all-or-nothing: every entry name and symlink target is
// validated against destDir before the first write, so a bundle containing a
// traversal entry fails with ErrPathTraversal and leaves destDir untouched.
func (c *Client) Extract(ctx context.Context, archivePath, destDir string, opts ...FetchOption) error {
	cfg := &fetchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return c.extractArchive(ctx, archivePath, destDir, cfg)
}

func (c *Client) extractArchive(ctx context.Context, archivePath, destDir string, cfg *fetchConfig) error {
	if cfg.checksum != "" {
		if err := verifyChecksum(archivePath, cfg.checksum); err != nil {
			return err
		}
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	c.logger.Debug("extracting output bundle", "archive", archivePath, "dest", destDir)

	if err := archive.Extract(ctx, f, destDir, c.validator, cfg.limits); err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}
	return nil
}

func verifyChecksum(archivePath, want string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	got, err := digest.Canonical.FromReader(f)
	if err != nil {
		return err
	}
	if got.String() != want {
		return fmt.Errorf("expected %s, got %s: %w", want, got, core.ErrChecksumMismatch)
	}
	return nil
}
