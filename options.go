package modelout

import (
	"log/slog"

	"github.com/havenml/modelout/core"
)

// ClientOption configures a Client.
type ClientOption func(*Client) error

// FetchOption configures a Fetch or Extract operation.
type FetchOption func(*fetchConfig)

// ExtractLimits defines safety limits for extraction.
// Re-exported from core package.
type ExtractLimits = core.ExtractLimits

// ProgressFunc is called to report download progress.
// Re-exported from core package.
type ProgressFunc = core.ProgressFunc

// fetchConfig holds configuration for Fetch and Extract operations.
type fetchConfig struct {
	limits   ExtractLimits
	checksum string
}

// WithLogger sets a logger for the client. By default, logging is disabled.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithRegion sets the AWS region for object storage access.
func WithRegion(region string) ClientOption {
	return func(c *Client) error {
		c.region = region
		return nil
	}
}

// WithEndpoint points the client at an S3-compatible endpoint (for example
// a MinIO instance) instead of AWS S3.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) error {
		c.endpoint = endpoint
		return nil
	}
}

// WithProgress sets a callback reporting download progress.
func WithProgress(fn ProgressFunc) ClientOption {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithObjectStore sets a custom object store implementation, overriding the
// default S3-backed one.
func WithObjectStore(store core.ObjectStore) ClientOption {
	return func(c *Client) error {
		c.store = store
		return nil
	}
}

// WithExtractLimits sets safety limits for extraction.
func WithExtractLimits(limits ExtractLimits) FetchOption {
	return func(c *fetchConfig) {
		c.limits = limits
	}
}

// WithChecksum requires the archive's sha256 digest (sha256:...) to match
// before extraction. The operation fails with ErrChecksumMismatch otherwise.
func WithChecksum(dgst string) FetchOption {
	return func(c *fetchConfig) {
		c.checksum = dgst
	}
}
