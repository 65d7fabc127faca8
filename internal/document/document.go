// Package document models the page-structured JSON sidecar produced by PDF
// extraction and consumed by the parser and differ.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sprite-ai/specgate/internal/model"
)

// Block types emitted by the extractor.
const (
	BlockText    = "text"
	BlockTable   = "table"
	BlockPicture = "picture"
)

// BlockID accepts both numeric and string identifiers from the extractor.
type BlockID string

func (id *BlockID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = BlockID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("block_id: %w", err)
	}
	*id = BlockID(n.String())
	return nil
}

// Block is one extracted content block.
type Block struct {
	Type          string    `json:"type"`
	BlockID       BlockID   `json:"block_id,omitempty"`
	Page          int       `json:"page,omitempty"`
	Content       string    `json:"content,omitempty"`
	Markdown      string    `json:"markdown,omitempty"`
	MarkdownTable string    `json:"markdown_table,omitempty"`
	BBox          []float64 `json:"bbox,omitempty"`
	Citation      string    `json:"citation,omitempty"`
	Source        string    `json:"source,omitempty"`
	ContentHash   string    `json:"content_hash,omitempty"`
}

// Text returns the block's textual content, whichever field carries it.
func (b *Block) Text() string {
	switch {
	case b.Content != "":
		return b.Content
	case b.Markdown != "":
		return b.Markdown
	default:
		return b.MarkdownTable
	}
}

// IsTable reports whether the block holds a table.
func (b *Block) IsTable() bool {
	return b.Type == BlockTable || b.MarkdownTable != ""
}

// TableText returns the markdown table body, falling back to the plain text.
func (b *Block) TableText() string {
	if b.MarkdownTable != "" {
		return b.MarkdownTable
	}
	return b.Text()
}

// Kind returns the block type. A block carrying a markdown table is a table
// whatever its type says; an untyped block is text.
func (b *Block) Kind() string {
	if b.IsTable() {
		return BlockTable
	}
	if b.Type == "" {
		return BlockText
	}
	return b.Type
}

// Page is one page of the document.
type Page struct {
	Page   int     `json:"page"`
	Blocks []Block `json:"blocks"`
}

// Document is a parsed spec version.
type Document struct {
	Pages []Page `json:"pages"`
}

// UnmarshalJSON accepts {"pages": [...]} as well as a bare page list.
func (d *Document) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &d.Pages)
	}
	type plain Document
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*d = Document(p)
	return nil
}

// Located is a block together with its position in the document.
type Located struct {
	Page  int // page number of the enclosing page bundle (0 if absent)
	Index int // position of the block within its page
	Block *Block
}

// PageNumber resolves the block's page: block field, then page bundle, then 1.
func (l Located) PageNumber() int {
	if l.Block.Page > 0 {
		return l.Block.Page
	}
	if l.Page > 0 {
		return l.Page
	}
	return 1
}

// ID resolves the block id, falling back to its position within the page.
func (l Located) ID() string {
	if l.Block.BlockID != "" {
		return string(l.Block.BlockID)
	}
	return strconv.Itoa(l.Index)
}

// Key is the stable position identity of the block (page + block id).
func (l Located) Key() string {
	return fmt.Sprintf("p%d_b%s", l.PageNumber(), l.ID())
}

// Citation reconstructs a provenance record for the block. Missing fields
// degrade to defaults instead of failing.
func (l Located) Citation() model.Citation {
	c := model.Citation{
		CitationID:  l.Block.Citation,
		Page:        l.PageNumber(),
		BlockID:     l.ID(),
		Source:      l.Block.Source,
		ContentType: l.Block.Kind(),
	}
	if c.CitationID == "" {
		c.CitationID = l.Key()
	}
	if c.Source == "" {
		c.Source = "text"
	}
	if len(l.Block.BBox) == 4 {
		copy(c.BBox[:], l.Block.BBox)
	}
	return c
}

// Blocks returns every block in document order.
func (d *Document) Blocks() []Located {
	var out []Located
	for pi := range d.Pages {
		p := &d.Pages[pi]
		for bi := range p.Blocks {
			out = append(out, Located{Page: p.Page, Index: bi, Block: &p.Blocks[bi]})
		}
	}
	return out
}

// EnsureHashes fills content_hash for blocks the extractor did not hash.
func (d *Document) EnsureHashes() {
	for _, loc := range d.Blocks() {
		if loc.Block.ContentHash == "" {
			loc.Block.ContentHash = ContentHash(loc.Block.Text())
		}
	}
}

// Parse validates and decodes a document sidecar.
func Parse(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	doc.EnsureHashes()
	return &doc, nil
}

// Load reads, validates and decodes a document sidecar from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Markdown renders the document as one markdown file with a "# Page N"
// heading per page. Picture blocks carry no text and are skipped. The output
// is stable so two versions can be compared with a line diff.
func (d *Document) Markdown() string {
	var b strings.Builder
	page := 0
	for _, loc := range d.Blocks() {
		if loc.Block.Kind() == BlockPicture {
			continue
		}
		text := strings.TrimSpace(loc.Block.Text())
		if loc.Block.IsTable() {
			text = strings.TrimSpace(loc.Block.TableText())
		}
		if text == "" {
			continue
		}
		if n := loc.PageNumber(); n != page {
			if page != 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "# Page %d\n\n", n)
			page = n
		} else {
			b.WriteString("\n")
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}
