package core

import (
	"fmt"
	"net/url"
	"strings"
)

// Location identifies where an output bundle (or artifact prefix) lives.
// Two schemes are supported, mirroring the training service's remote and
// local output modes: s3://bucket/key and file:///path (a bare filesystem
// path is treated as file).
type Location struct {
	// Bucket is the object store bucket. Empty for local locations.
	Bucket string
	// Key is the object key (or key prefix). Empty for local locations.
	Key string
	// Path is the local filesystem path. Empty for remote locations.
	Path string
}

// IsLocal reports whether the location refers to the local filesystem.
func (l Location) IsLocal() bool { return l.Path != "" }

// String renders the location back to URL form.
func (l Location) String() string {
	if l.IsLocal() {
		return "file://" + l.Path
	}
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// ParseLocation parses an output location URL.
//
// Accepted forms:
//
//	s3://bucket/path/to/model.tar.gz
//	file:///tmp/output/model.tar.gz
//	/tmp/output/model.tar.gz
//	./output/model.tar.gz
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}

	switch {
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		if u.Host == "" {
			return Location{}, fmt.Errorf("%w: missing bucket in %q", ErrInvalidLocation, raw)
		}
		return Location{
			Bucket: u.Host,
			Key:    strings.TrimPrefix(u.Path, "/"),
		}, nil

	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		if u.Host != "" && u.Host != "localhost" {
			return Location{}, fmt.Errorf("%w: unexpected host %q in %q", ErrInvalidLocation, u.Host, raw)
		}
		if u.Path == "" {
			return Location{}, fmt.Errorf("%w: missing path in %q", ErrInvalidLocation, raw)
		}
		return Location{Path: u.Path}, nil

	case strings.Contains(raw, "://"):
		return Location{}, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidLocation, raw)

	default:
		return Location{Path: raw}, nil
	}
}
