package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/havenml/modelout/core"
)

// LocalArchive resolves a local output location to an archive path, checking
// that the file exists. Local-mode training writes the bundle directly to
// the configured output directory, so there is nothing to download.
func LocalArchive(path string) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", path, core.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, expected an archive: %w", path, core.ErrInvalidLocation)
	}
	return path, nil
}

// LocalList returns the slash-separated relative paths of all regular files
// under dir. It mirrors S3Store.List for file:// artifact prefixes.
func LocalList(dir string) ([]string, error) {
	var names []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}
