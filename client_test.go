package modelout

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/archive"
)

// buildBundle writes a gzipped output bundle to a temp file and returns its
// path and sha256 digest.
func buildBundle(t *testing.T, files fstest.MapFS) (string, string) {
	t.Helper()

	var blob bytes.Buffer
	require.NoError(t, archive.Build(context.Background(), files, &blob, core.GzipCompression))

	path := filepath.Join(t.TempDir(), "model.tar.gz")
	require.NoError(t, os.WriteFile(path, blob.Bytes(), 0o644))

	return path, digest.FromBytes(blob.Bytes()).String()
}

func TestClient_Extract(t *testing.T) {
	t.Parallel()

	archivePath, _ := buildBundle(t, fstest.MapFS{
		"rank-0":               &fstest.MapFile{Data: []byte(`{"rank": 0}`), Mode: 0o644},
		"rank-1":               &fstest.MapFile{Data: []byte(`{"rank": 1}`), Mode: 0o644},
		"model/saved_model.pb": &fstest.MapFile{Data: []byte("graph"), Mode: 0o644},
	})

	client, err := NewClient()
	require.NoError(t, err)

	destDir := t.TempDir()
	require.NoError(t, client.Extract(context.Background(), archivePath, destDir))

	ranks, err := ReadRanks(destDir)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, 0, ranks[0].Rank)
	assert.Equal(t, 1, ranks[1].Rank)

	content, err := os.ReadFile(filepath.Join(destDir, "model", "saved_model.pb"))
	require.NoError(t, err)
	assert.Equal(t, "graph", string(content))
}

func TestClient_Fetch_LocalModes(t *testing.T) {
	t.Parallel()

	archivePath, _ := buildBundle(t, fstest.MapFS{
		"rank-0": &fstest.MapFile{Data: []byte(`{"rank": 0}`), Mode: 0o644},
	})

	tests := []struct {
		name     string
		location func() string
	}{
		{name: "bare path", location: func() string { return archivePath }},
		{name: "file url", location: func() string { return "file://" + archivePath }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := NewClient()
			require.NoError(t, err)

			destDir := t.TempDir()
			require.NoError(t, client.Fetch(context.Background(), tt.location(), destDir))

			_, err = os.Stat(filepath.Join(destDir, "rank-0"))
			assert.NoError(t, err)
		})
	}
}

func TestClient_Fetch_MissingLocalArchive(t *testing.T) {
	t.Parallel()

	client, err := NewClient()
	require.NoError(t, err)

	err = client.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.tar.gz"), t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Extract_Checksum(t *testing.T) {
	t.Parallel()

	archivePath, dgst := buildBundle(t, fstest.MapFS{
		"rank-0": &fstest.MapFile{Data: []byte(`{"rank": 0}`), Mode: 0o644},
	})

	client, err := NewClient()
	require.NoError(t, err)

	t.Run("matching digest", func(t *testing.T) {
		t.Parallel()

		err := client.Extract(context.Background(), archivePath, t.TempDir(), WithChecksum(dgst))
		assert.NoError(t, err)
	})

	t.Run("mismatched digest", func(t *testing.T) {
		t.Parallel()

		destDir := t.TempDir()
		err := client.Extract(context.Background(), archivePath, destDir,
			WithChecksum("sha256:0000000000000000000000000000000000000000000000000000000000000000"))
		require.ErrorIs(t, err, ErrChecksumMismatch)

		entries, err := os.ReadDir(destDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "nothing may be extracted on checksum failure")
	})
}

func TestClient_Extract_Limits(t *testing.T) {
	t.Parallel()

	archivePath, _ := buildBundle(t, fstest.MapFS{
		"a": &fstest.MapFile{Data: []byte("aaa"), Mode: 0o644},
		"b": &fstest.MapFile{Data: []byte("bbb"), Mode: 0o644},
	})

	client, err := NewClient()
	require.NoError(t, err)

	err = client.Extract(context.Background(), archivePath, t.TempDir(),
		WithExtractLimits(ExtractLimits{MaxFiles: 1}))
	require.ErrorIs(t, err, ErrExtractLimits)
}

func TestClient_VerifyArtifacts_Local(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "model"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model", "graph.pbtxt"), []byte("g"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model", "model.ckpt-0.index"), []byte("i"), 0o644))

	client, err := NewClient()
	require.NoError(t, err)

	err = client.VerifyArtifacts(context.Background(), "file://"+dir,
		[]string{"graph.pbtxt", "model.ckpt-0.index"})
	assert.NoError(t, err)

	err = client.VerifyArtifacts(context.Background(), "file://"+dir,
		[]string{"graph.pbtxt", "model.ckpt-0.meta"})
	require.ErrorIs(t, err, ErrArtifactMissing)
	assert.Contains(t, err.Error(), "model.ckpt-0.meta")
}

func TestClient_Fetch_FakeStore(t *testing.T) {
	t.Parallel()

	archivePath, dgst := buildBundle(t, fstest.MapFS{
		"rank-0": &fstest.MapFile{Data: []byte(`{"rank": 0}`), Mode: 0o644},
	})
	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	store := &fakeStore{
		objects: map[string][]byte{"jobs/tf-123/output/model.tar.gz": data},
	}
	client, err := NewClient(WithObjectStore(store))
	require.NoError(t, err)

	destDir := t.TempDir()
	err = client.Fetch(context.Background(), "s3://bucket/jobs/tf-123/output/model.tar.gz", destDir,
		WithChecksum(dgst))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(destDir, "rank-0"))
	assert.NoError(t, err)

	err = client.Fetch(context.Background(), "s3://bucket/jobs/absent/model.tar.gz", t.TempDir())
	require.ErrorIs(t, err, ErrNotFound)
}

// fakeStore is an in-memory core.ObjectStore for facade tests.
type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Download(_ context.Context, _, key, destPath string, progress core.ProgressFunc) (core.DownloadResult, error) {
	data, ok := f.objects[key]
	if !ok {
		return core.DownloadResult{}, core.ErrNotFound
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return core.DownloadResult{}, err
	}
	if progress != nil {
		progress(int64(len(data)), int64(len(data)))
	}
	return core.DownloadResult{
		Bytes:  int64(len(data)),
		Digest: digest.FromBytes(data).String(),
	}, nil
}

func (f *fakeStore) List(_ context.Context, _, prefix string) ([]string, error) {
	var keys []string
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
