// Package diff finds block-level differences between two versions of a spec,
// either from the parsed documents or from a unified diff of their markdown
// export.
package diff

import (
	"fmt"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/model"
)

// Strategy names accepted by StrategyFor.
const (
	ContentHash = "content_hash"
	Position    = "position"
)

// Delta is one block that differs between versions. Old is empty for
// additions and New is empty for removals.
type Delta struct {
	Kind        impact.Kind
	BlockType   string
	Old         string
	New         string
	OldCitation *model.Citation
	NewCitation *model.Citation
}

// Strategy compares two documents.
type Strategy func(oldDoc, newDoc *document.Document) []Delta

// StrategyFor returns the strategy registered under name. An empty name
// selects ContentHash.
func StrategyFor(name string) (Strategy, error) {
	switch name {
	case "", ContentHash:
		return ByContentHash, nil
	case Position:
		return ByPosition, nil
	}
	return nil, fmt.Errorf("unknown diff strategy %q", name)
}

func hashOf(loc document.Located) string {
	if loc.Block.ContentHash != "" {
		return loc.Block.ContentHash
	}
	return document.ContentHash(loc.Block.Text())
}

func removed(loc document.Located) Delta {
	c := loc.Citation()
	return Delta{Kind: impact.Removed, BlockType: loc.Block.Kind(), Old: loc.Block.Text(), OldCitation: &c}
}

func added(loc document.Located) Delta {
	c := loc.Citation()
	return Delta{Kind: impact.Added, BlockType: loc.Block.Kind(), New: loc.Block.Text(), NewCitation: &c}
}

func modified(o, n document.Located) Delta {
	oc, nc := o.Citation(), n.Citation()
	return Delta{
		Kind:        impact.Modified,
		BlockType:   n.Block.Kind(),
		Old:         o.Block.Text(),
		New:         n.Block.Text(),
		OldCitation: &oc,
		NewCitation: &nc,
	}
}

// hashIndex maps content hash to the first block carrying it, keeping
// document order.
type hashIndex struct {
	order  []string
	blocks map[string]document.Located
}

func indexByHash(doc *document.Document) hashIndex {
	idx := hashIndex{blocks: make(map[string]document.Located)}
	if doc == nil {
		return idx
	}
	for _, loc := range doc.Blocks() {
		h := hashOf(loc)
		if _, ok := idx.blocks[h]; ok {
			continue
		}
		idx.blocks[h] = loc
		idx.order = append(idx.order, h)
	}
	return idx
}

// ByContentHash treats the content hash as block identity: a hash only in
// old is a removal and a hash only in new is an addition. An edited block
// therefore shows up as a removal plus an addition. Removals come first, in
// old document order, then additions in new document order.
func ByContentHash(oldDoc, newDoc *document.Document) []Delta {
	oldIdx, newIdx := indexByHash(oldDoc), indexByHash(newDoc)

	var out []Delta
	for _, h := range oldIdx.order {
		if _, ok := newIdx.blocks[h]; !ok {
			out = append(out, removed(oldIdx.blocks[h]))
		}
	}
	for _, h := range newIdx.order {
		if _, ok := oldIdx.blocks[h]; !ok {
			out = append(out, added(newIdx.blocks[h]))
		}
	}
	return out
}

// keyIndex maps page+block id to its block, keeping document order.
type keyIndex struct {
	order  []string
	blocks map[string]document.Located
	hashes map[string]bool
}

func indexByKey(doc *document.Document) keyIndex {
	idx := keyIndex{blocks: make(map[string]document.Located), hashes: make(map[string]bool)}
	if doc == nil {
		return idx
	}
	for _, loc := range doc.Blocks() {
		k := loc.Key()
		idx.hashes[hashOf(loc)] = true
		if _, ok := idx.blocks[k]; ok {
			continue
		}
		idx.blocks[k] = loc
		idx.order = append(idx.order, k)
	}
	return idx
}

// ByPosition keys blocks by page and block id and compares hashes within a
// key, so an edit in place is a single modification. Content that exists on
// both sides under different keys has moved and is not reported.
func ByPosition(oldDoc, newDoc *document.Document) []Delta {
	oldIdx, newIdx := indexByKey(oldDoc), indexByKey(newDoc)

	var out []Delta
	for _, k := range oldIdx.order {
		o := oldIdx.blocks[k]
		oh := hashOf(o)
		n, ok := newIdx.blocks[k]
		if !ok {
			if !newIdx.hashes[oh] {
				out = append(out, removed(o))
			}
			continue
		}

		nh := hashOf(n)
		oldMoved, newMoved := newIdx.hashes[oh], oldIdx.hashes[nh]
		switch {
		case oh == nh, oldMoved && newMoved:
		case oldMoved:
			out = append(out, added(n))
		case newMoved:
			out = append(out, removed(o))
		default:
			out = append(out, modified(o, n))
		}
	}

	for _, k := range newIdx.order {
		if _, ok := oldIdx.blocks[k]; ok {
			continue
		}
		n := newIdx.blocks[k]
		if !oldIdx.hashes[hashOf(n)] {
			out = append(out, added(n))
		}
	}
	return out
}
