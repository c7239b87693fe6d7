// Package storage retrieves output bundles from object storage or the local
// filesystem, the two places the training service writes job output.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/opencontainers/go-digest"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/progress"
)

// Compile-time interface implementation check.
var _ core.ObjectStore = (*S3Store)(nil)

// S3Store implements core.ObjectStore against S3 (or an S3-compatible
// endpoint such as MinIO).
type S3Store struct {
	client *s3.Client
	logger *slog.Logger
}

// S3Option configures an S3Store.
type S3Option func(*s3Config)

type s3Config struct {
	region       string
	endpoint     string
	usePathStyle bool
	accessKey    string
	secretKey    string
}

// WithRegion sets the AWS region. Defaults to the SDK's resolution chain.
func WithRegion(region string) S3Option {
	return func(c *s3Config) { c.region = region }
}

// WithEndpoint points the store at an S3-compatible endpoint and switches to
// path-style addressing, which such endpoints typically require.
func WithEndpoint(endpoint string) S3Option {
	return func(c *s3Config) {
		c.endpoint = endpoint
		c.usePathStyle = true
	}
}

// WithStaticCredentials sets explicit credentials instead of the default
// resolution chain.
func WithStaticCredentials(accessKey, secretKey string) S3Option {
	return func(c *s3Config) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

// NewS3 creates an S3-backed object store.
func NewS3(ctx context.Context, logger *slog.Logger, opts ...S3Option) (*S3Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var cfg s3Config
	for _, opt := range opts {
		opt(&cfg)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.region))
	}
	if cfg.accessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.accessKey, cfg.secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.endpoint)
		}
		o.UsePathStyle = cfg.usePathStyle
	})

	return &S3Store{client: client, logger: logger}, nil
}

// Download fetches bucket/key to destPath. The sha256 digest of the content
// is computed while copying so callers can verify without a second pass.
func (s *S3Store) Download(ctx context.Context, bucket, key, destPath string, progressFn core.ProgressFunc) (core.DownloadResult, error) {
	s.logger.Debug("downloading output bundle", "bucket", bucket, "key", key, "dest", destPath)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return core.DownloadResult{}, fmt.Errorf("s3://%s/%s: %w", bucket, key, core.ErrNotFound)
		}
		return core.DownloadResult{}, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	total := int64(-1)
	if out.ContentLength != nil {
		total = *out.ContentLength
	}
	body := progress.NewReader(out.Body, total, progressFn)

	f, err := os.Create(destPath)
	if err != nil {
		return core.DownloadResult{}, err
	}

	digester := digest.Canonical.Digester()
	written, copyErr := io.Copy(io.MultiWriter(f, digester.Hash()), body)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(destPath)
		return core.DownloadResult{}, fmt.Errorf("download s3://%s/%s: %w", bucket, key, copyErr)
	}
	if closeErr != nil {
		os.Remove(destPath)
		return core.DownloadResult{}, closeErr
	}

	result := core.DownloadResult{
		Bytes:  written,
		Digest: digester.Digest().String(),
	}
	s.logger.Debug("downloaded output bundle", "bytes", result.Bytes, "digest", result.Digest)
	return result, nil
}

// List returns all object keys under bucket/prefix.
func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}
