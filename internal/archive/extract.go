// Package archive builds and extracts training output bundles (tar streams,
// optionally gzip- or zstd-compressed).
package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/havenml/modelout/core"
)

// Extract unpacks an output bundle to the destination directory.
//
// The compression format (gzip, zstd, or plain tar) is auto-detected from the
// stream's magic bytes. Extraction is two-pass: the first pass reads every
// header and validates all entry names, symlink targets, and limits through
// the validator; only when the whole bundle passes is anything written. A
// rejected bundle therefore leaves no partial output behind.
func Extract(ctx context.Context, r io.ReadSeeker, destDir string, validator core.PathValidator, limits core.ExtractLimits) error {
	entries, err := Scan(ctx, r)
	if err != nil {
		return err
	}
	if err := validator.ValidateEntries(destDir, entries, limits); err != nil {
		return err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind archive: %w", err)
	}
	decomp, err := detectAndDecompress(r)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidArchive, err)
	}
	defer decomp.Close()

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return err
	}

	tr := tar.NewReader(decomp)
	buf := make([]byte, copyBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidArchive, err)
		}

		if err := writeEntry(ctx, destDir, header, tr, buf); err != nil {
			return err
		}
	}

	return nil
}

// Scan reads all headers from the archive without writing anything. The
// returned entries are in archive order and feed the pre-write validation
// pass.
func Scan(ctx context.Context, r io.Reader) ([]core.Entry, error) {
	decomp, err := detectAndDecompress(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidArchive, err)
	}
	defer decomp.Close()

	var entries []core.Entry
	tr := tar.NewReader(decomp)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidArchive, err)
		}

		// Pax global headers (git archive emits one) are metadata records,
		// not bundle members.
		if header.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		entry := core.Entry{
			Name:     header.Name,
			Size:     header.Size,
			Mode:     header.Mode,
			LinkName: header.Linkname,
		}
		switch header.Typeflag {
		case tar.TypeDir:
			entry.Type = core.TypeDir
		case tar.TypeReg:
			entry.Type = core.TypeReg
		case tar.TypeSymlink:
			entry.Type = core.TypeSymlink
		default:
			return nil, fmt.Errorf("%w: unsupported entry type %q for %s", core.ErrInvalidArchive, header.Typeflag, header.Name)
		}
		entries = append(entries, entry)
	}
}

// writeEntry materializes a single tar entry. All names were validated in the
// scan pass before the first write.
//
//nolint:gosec // G305: paths validated by the scan pass via PathValidator
func writeEntry(ctx context.Context, destDir string, header *tar.Header, tr *tar.Reader, buf []byte) error {
	if header.Name == "" || header.Name == "." || header.Name == "./" {
		return nil
	}
	fullPath := filepath.Join(destDir, filepath.FromSlash(header.Name))

	switch header.Typeflag {
	case tar.TypeDir:
		//nolint:gosec // G115: mode from the validated tar header
		return os.MkdirAll(fullPath, fs.FileMode(header.Mode).Perm()|0o700)
	case tar.TypeReg:
		return writeFile(ctx, fullPath, header, tr, buf)
	case tar.TypeSymlink:
		return writeSymlink(fullPath, header)
	case tar.TypeXGlobalHeader:
		// metadata record, skipped by the scan pass too
		return nil
	default:
		return fmt.Errorf("%w: unsupported entry type %q for %s", core.ErrInvalidArchive, header.Typeflag, header.Name)
	}
}

func writeFile(ctx context.Context, fullPath string, header *tar.Header, tr *tar.Reader, buf []byte) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return err
	}

	// O_EXCL fails if the path exists, preventing a race with symlink creation.
	//nolint:gosec // G304: path validated in scan pass, G115: mode from tar header
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fs.FileMode(header.Mode).Perm())
	if err != nil {
		return err
	}

	copyErr := copyWithContext(ctx, f, tr, buf)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

func writeSymlink(fullPath string, header *tar.Header) error {
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	// Create the link under a unique temp name then rename atomically. The
	// temp name must not collide with any archive entry: a fixed suffix
	// could clobber an already-extracted sibling file.
	tmpLink, err := tempSymlink(dir, header.Linkname)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpLink, fullPath); err != nil {
		_ = os.Remove(tmpLink)
		return err
	}
	return nil
}

// tempSymlink creates a symlink to target under a fresh random name in dir,
// retrying on collisions the way os.CreateTemp does.
func tempSymlink(dir, target string) (string, error) {
	for range 10000 {
		name := filepath.Join(dir, fmt.Sprintf(".modelout-link-%d", rand.Uint64()))
		err := os.Symlink(target, name)
		if err == nil {
			return name, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
	}
	return "", errors.New("cannot create temporary symlink name")
}

// detectAndDecompress auto-detects the compression format and returns a
// decompressing reader. Streams without a gzip or zstd magic are treated as
// plain tar; a garbage stream then fails on the first header read.
func detectAndDecompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	if len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		// gzip magic: 0x1f 0x8b
		return gzip.NewReader(br)
	}
	if len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd {
		// zstd magic: 0x28 0xb5 0x2f 0xfd
		decoder, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return decoder.IOReadCloser(), nil
	}

	return io.NopCloser(br), nil
}
