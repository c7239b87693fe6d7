package modelout

import (
	"context"
	"fmt"
	"strings"

	"github.com/havenml/modelout/core"
	"github.com/havenml/modelout/internal/storage"
)

// VerifyArtifacts checks that every named file exists somewhere under the
// given output prefix (an s3:// or file:// URL). A name matches when an
// object key either equals it or ends with "/" followed by it, so
// "model.ckpt-0.index" matches "jobs/tf-123/model/model.ckpt-0.index".
//
// Returns ErrArtifactMissing naming the first absent file.
func (c *Client) VerifyArtifacts(ctx context.Context, prefix string, names []string) error {
	loc, err := core.ParseLocation(prefix)
	if err != nil {
		return err
	}

	var keys []string
	if loc.IsLocal() {
		keys, err = storage.LocalList(loc.Path)
	} else {
		var store core.ObjectStore
		store, err = c.ensureStore(ctx)
		if err != nil {
			return err
		}
		keys, err = store.List(ctx, loc.Bucket, loc.Key)
	}
	if err != nil {
		return err
	}

	for _, name := range names {
		if !containsArtifact(keys, name) {
			return fmt.Errorf("%s not found under %s: %w", name, prefix, core.ErrArtifactMissing)
		}
	}
	return nil
}

func containsArtifact(keys []string, name string) bool {
	for _, key := range keys {
		if key == name || strings.HasSuffix(key, "/"+name) {
			return true
		}
	}
	return false
}
