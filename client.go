package modelout

import (
	"context"
	"log/slog"
	"sync"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/safepath"
	"github.com/havenml/modelout/internal/storage"
)

// Client retrieves and unpacks training job output bundles.
type Client struct {
	store     core.ObjectStore
	validator core.PathValidator
	logger    *slog.Logger
	progress  core.ProgressFunc

	// configuration passed to the S3 store
	region   string
	endpoint string

	// The S3 client is created lazily on first remote access because the
	// AWS credential chain needs a context; local-only use never touches it.
	storeOnce sync.Once
	storeErr  error
}

// NewClient creates a new modelout client.
//
// By default, object storage credentials are resolved from the AWS SDK's
// standard chain (environment, shared config, instance metadata). Use
// WithRegion, WithEndpoint, or WithObjectStore to override.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.validator = safepath.NewValidator()

	return c, nil
}

// ensureStore initializes the S3-backed store on first remote access.
func (c *Client) ensureStore(ctx context.Context) (core.ObjectStore, error) {
	if c.store != nil {
		return c.store, nil
	}

	c.storeOnce.Do(func() {
		var opts []storage.S3Option
		if c.region != "" {
			opts = append(opts, storage.WithRegion(c.region))
		}
		if c.endpoint != "" {
			opts = append(opts, storage.WithEndpoint(c.endpoint))
		}

		store, err := storage.NewS3(ctx, c.logger, opts...)
		if err != nil {
			c.storeErr = err
			return
		}
		c.store = store
	})

	return c.store, c.storeErr
}
