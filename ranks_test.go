package modelout

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRanks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 0; i < 4; i++ {
		path := filepath.Join(dir, fmt.Sprintf("rank-%d", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"rank": %d}`, i)), 0o644))
	}
	// Unrelated files with a rank- prefix are not worker manifests.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rank-map.json"), []byte("{}"), 0o644))

	ranks, err := ReadRanks(dir)
	require.NoError(t, err)
	require.Len(t, ranks, 4)
	for i, r := range ranks {
		assert.Equal(t, i, r.Rank)
	}
}

func TestReadRanks_Empty(t *testing.T) {
	t.Parallel()

	ranks, err := ReadRanks(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, ranks)
}

func TestReadRanks_MismatchedRank(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rank-0"), []byte(`{"rank": 1}`), 0o644))

	_, err := ReadRanks(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rank-0")
}

func TestReadRanks_MalformedJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rank-0"), []byte("not json"), 0o644))

	_, err := ReadRanks(dir)
	require.Error(t, err)
}
