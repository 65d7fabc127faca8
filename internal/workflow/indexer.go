package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/fileutil"
	"github.com/sprite-ai/specgate/internal/model"
)

// Indexer builds the search index for one spec version into dir and returns
// the index path. Embedding and BM25 builders live outside this module and
// plug in here.
type Indexer interface {
	Build(ctx context.Context, doc *document.Document, dir string) (string, error)
}

// ManifestFile is the name of the manifest ManifestIndexer writes.
const ManifestFile = "manifest.json"

// Manifest lists the blocks an index was built from.
type Manifest struct {
	BuiltAt time.Time       `json:"built_at"`
	Blocks  []ManifestBlock `json:"blocks"`
}

type ManifestBlock struct {
	Key         string         `json:"key"`
	ContentHash string         `json:"content_hash"`
	Type        string         `json:"type"`
	Citation    model.Citation `json:"citation"`
}

// ManifestIndexer records block hashes and citations instead of building a
// real index.
type ManifestIndexer struct{}

func (ManifestIndexer) Build(ctx context.Context, doc *document.Document, dir string) (string, error) {
	m := Manifest{BuiltAt: timeNow().UTC(), Blocks: []ManifestBlock{}}
	for _, loc := range doc.Blocks() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		m.Blocks = append(m.Blocks, ManifestBlock{
			Key:         loc.Key(),
			ContentHash: loc.Block.ContentHash,
			Type:        loc.Block.Kind(),
			Citation:    loc.Citation(),
		})
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	if err := fileutil.WriteAtomic(filepath.Join(dir, ManifestFile), data); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return dir, nil
}
