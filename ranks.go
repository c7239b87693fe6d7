package modelout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Rank is the manifest each distributed worker writes to the output bundle
// as a file named rank-N containing {"rank": N}.
type Rank struct {
	Rank int `json:"rank"`
}

// ReadRanks reads all rank-N manifests from an extracted output directory,
// ordered by rank. A manifest whose reported rank disagrees with its
// filename is an error, since that indicates the workers were wired to the
// wrong process indices.
func ReadRanks(dir string) ([]Rank, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "rank-*"))
	if err != nil {
		return nil, err
	}

	var ranks []Rank
	for _, path := range matches {
		suffix := strings.TrimPrefix(filepath.Base(path), "rank-")
		want, err := strconv.Atoi(suffix)
		if err != nil {
			// Not a worker manifest (e.g. rank-map.json), skip.
			continue
		}

		//nolint:gosec // G304: path comes from globbing the caller's directory
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var r Rank
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if r.Rank != want {
			return nil, fmt.Errorf("rank file %s reports rank %d", filepath.Base(path), r.Rank)
		}
		ranks = append(ranks, r)
	}

	sort.Slice(ranks, func(i, j int) bool { return ranks[i].Rank < ranks[j].Rank })
	return ranks, nil
}
