package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/klauspost/compress/zstd"

	"github.com/havenml/modelout/core"
)

// Build writes an output bundle containing every file under src to w.
// Entries are written in fs.WalkDir order so identical inputs produce
// identical bundles. Used by tests and the pack command to fabricate the
// bundles a training job would upload.
func Build(ctx context.Context, src fs.FS, w io.Writer, compression core.Compression) error {
	cw, err := compressWriter(w, compression)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(cw)
	buf := make([]byte, copyBufferSize)

	err = fs.WalkDir(src, ".", func(name string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if name == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = name
		if d.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if d.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		f, err := src.Open(name)
		if err != nil {
			return err
		}
		copyErr := copyWithContext(ctx, tw, f, buf)
		closeErr := f.Close()
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return cw.Close()
}

// compressWriter wraps w for the requested format. The returned closer
// flushes the compressor but never closes w itself.
func compressWriter(w io.Writer, compression core.Compression) (io.WriteCloser, error) {
	switch compression {
	case core.GzipCompression:
		return gzip.NewWriter(w), nil
	case core.ZstdCompression:
		return zstd.NewWriter(w)
	case core.NoCompression:
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("unknown compression %d", compression)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
