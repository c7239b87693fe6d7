package modelout

import (
	"context"
	"fmt"
	"os"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/storage"
)

// Fetch obtains the output bundle at location and extracts it into destDir.
//
// The location may be an s3:// URL, a file:// URL, or a bare local path.
// Remote bundles are downloaded to a temporary file that is removed when the
// call returns. Every archive entry is validated before anything is written;
// see Extract for the safety guarantees.
func (c *Client) Fetch(ctx context.Context, location, destDir string, opts ...FetchOption) error {
	cfg := &fetchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	loc, err := core.ParseLocation(location)
	if err != nil {
		return err
	}

	if loc.IsLocal() {
		archivePath, err := storage.LocalArchive(loc.Path)
		if err != nil {
			return err
		}
		return c.extractArchive(ctx, archivePath, destDir, cfg)
	}

	store, err := c.ensureStore(ctx)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "modelout-*.tar.gz")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	result, err := store.Download(ctx, loc.Bucket, loc.Key, tmpPath, c.progress)
	if err != nil {
		return err
	}

	if cfg.checksum != "" && result.Digest != cfg.checksum {
		return fmt.Errorf("expected %s, got %s: %w", cfg.checksum, result.Digest, core.ErrChecksumMismatch)
	}
	// Digest already computed during download, skip the re-hash in extractArchive.
	verified := *cfg
	verified.checksum = ""

	return c.extractArchive(ctx, tmpPath, destDir, &verified)
}
