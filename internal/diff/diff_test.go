package diff

import (
	"testing"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/model"
)

func doc(t *testing.T, raw string) *document.Document {
	t.Helper()
	d, err := document.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return d
}

const oldVersion = `[{"page": 1, "blocks": [
  {"type": "text", "block_id": 1, "markdown": "Message OBS.R01 definition", "content_hash": "H1"},
  {"type": "text", "block_id": 2, "markdown": "Shared intro", "content_hash": "S"}
]}]`

const newVersion = `[{"page": 1, "blocks": [
  {"type": "text", "block_id": 1, "markdown": "Message OBS.R01 definition - updated documentation", "content_hash": "H2"},
  {"type": "text", "block_id": 2, "markdown": "Shared intro", "content_hash": "S"}
]}]`

func TestByContentHashEditIsRemovePlusAdd(t *testing.T) {
	deltas := ByContentHash(doc(t, oldVersion), doc(t, newVersion))
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d: %+v", len(deltas), deltas)
	}

	rm, add := deltas[0], deltas[1]
	if rm.Kind != impact.Removed || rm.Old != "Message OBS.R01 definition" || rm.New != "" {
		t.Errorf("unexpected removal %+v", rm)
	}
	if rm.OldCitation == nil || rm.OldCitation.CitationID != "p1_b1" || rm.NewCitation != nil {
		t.Errorf("unexpected removal citations %+v / %+v", rm.OldCitation, rm.NewCitation)
	}
	if add.Kind != impact.Added || add.New != "Message OBS.R01 definition - updated documentation" || add.Old != "" {
		t.Errorf("unexpected addition %+v", add)
	}
}

func TestIdenticalHashSetsProduceNoDeltas(t *testing.T) {
	reordered := `{"pages": [{"page": 4, "blocks": [
	  {"type": "text", "markdown": "Shared intro", "content_hash": "S"},
	  {"type": "text", "markdown": "whatever text", "content_hash": "H1"}
	]}]}`

	if d := ByContentHash(doc(t, oldVersion), doc(t, reordered)); len(d) != 0 {
		t.Errorf("expected no deltas, got %+v", d)
	}
	if d := ByContentHash(doc(t, oldVersion), doc(t, oldVersion)); len(d) != 0 {
		t.Errorf("expected no deltas for identical documents, got %+v", d)
	}
}

func TestByPositionEditIsModification(t *testing.T) {
	deltas := ByPosition(doc(t, oldVersion), doc(t, newVersion))
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d: %+v", len(deltas), deltas)
	}
	d := deltas[0]
	if d.Kind != impact.Modified {
		t.Fatalf("expected modification, got %s", d.Kind)
	}
	if d.Old != "Message OBS.R01 definition" || d.New != "Message OBS.R01 definition - updated documentation" {
		t.Errorf("unexpected contents %q -> %q", d.Old, d.New)
	}
	if d.OldCitation == nil || d.NewCitation == nil {
		t.Error("modification should carry both citations")
	}
}

func TestByPositionInsertionShiftsBlocks(t *testing.T) {
	before := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 1, "markdown": "A"},
	  {"type": "text", "block_id": 2, "markdown": "B"}
	]}]`
	after := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 1, "markdown": "X"},
	  {"type": "text", "block_id": 2, "markdown": "A"},
	  {"type": "text", "block_id": 3, "markdown": "B"}
	]}]`

	deltas := ByPosition(doc(t, before), doc(t, after))
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d: %+v", len(deltas), deltas)
	}
	if deltas[0].Kind != impact.Added || deltas[0].New != "X" {
		t.Errorf("expected X to be added, got %+v", deltas[0])
	}
}

func TestByPositionSwapIsNotAChange(t *testing.T) {
	before := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 1, "markdown": "A"},
	  {"type": "text", "block_id": 2, "markdown": "B"}
	]}]`
	after := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 1, "markdown": "B"},
	  {"type": "text", "block_id": 2, "markdown": "A"}
	]}]`

	if d := ByPosition(doc(t, before), doc(t, after)); len(d) != 0 {
		t.Errorf("expected no deltas, got %+v", d)
	}
}

func TestByPositionRemovedBlock(t *testing.T) {
	after := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 2, "markdown": "Shared intro", "content_hash": "S"}
	]}]`

	deltas := ByPosition(doc(t, oldVersion), doc(t, after))
	if len(deltas) != 1 || deltas[0].Kind != impact.Removed {
		t.Fatalf("expected one removal, got %+v", deltas)
	}
}

func TestStrategyFor(t *testing.T) {
	for _, name := range []string{"", ContentHash, Position} {
		if _, err := StrategyFor(name); err != nil {
			t.Errorf("StrategyFor(%q): %v", name, err)
		}
	}
	if _, err := StrategyFor("fuzzy"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

const markdownPatch = `diff --git a/spec/roche_v1.md b/spec/roche_v1.md
index abc1234..def5678 100644
--- a/spec/roche_v1.md
+++ b/spec/roche_v1.md
@@ -1,6 +1,7 @@
 # Page 3
-Field: SampleID, Type: ST, Opt: R
+Field: SampleID, Type: ST, Opt: O
 | Field | Type | Opt |
 | MSH-9 | ST | R |
+| MSH-10 | ST | R |
 Intro paragraph.
-Old historical note.
+Vendor extension ZXY now supported.
@@ -40,2 +41,2 @@ # Page 7
 context line
-OBS.R01 old
+OBS.R02 new
`

func TestParsePatch(t *testing.T) {
	ps, err := ParsePatch(markdownPatch)
	if err != nil {
		t.Fatalf("ParsePatch failed: %v", err)
	}
	if len(ps.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(ps.Files))
	}
	if name := ps.Files[0].Name(); name != "spec/roche_v1.md" {
		t.Errorf("expected name spec/roche_v1.md, got %q", name)
	}

	files, added, deleted := ps.Stats()
	if files != 1 || added != 4 || deleted != 3 {
		t.Errorf("stats = %d/%d/%d, want 1/4/3", files, added, deleted)
	}
}

func TestPatchDeltas(t *testing.T) {
	ps, err := ParsePatch(markdownPatch)
	if err != nil {
		t.Fatal(err)
	}

	deltas := ps.Deltas()
	if len(deltas) != 4 {
		t.Fatalf("expected 4 deltas, got %d: %+v", len(deltas), deltas)
	}

	want := []struct {
		kind      impact.Kind
		blockType string
		page      int
	}{
		{impact.Modified, document.BlockText, 3},
		{impact.Added, document.BlockTable, 3},
		{impact.Modified, document.BlockText, 3},
		{impact.Modified, document.BlockText, 7},
	}
	for i, w := range want {
		d := deltas[i]
		if d.Kind != w.kind || d.BlockType != w.blockType {
			t.Errorf("delta %d: got %s/%s, want %s/%s", i, d.Kind, d.BlockType, w.kind, w.blockType)
		}
		c := d.NewCitation
		if c == nil {
			c = d.OldCitation
		}
		if c == nil || c.Page != w.page {
			t.Errorf("delta %d: citation %+v, want page %d", i, c, w.page)
		}
	}

	if got := deltas[0].OldCitation.CitationID; got != "spec/roche_v1.md:L2" {
		t.Errorf("old citation = %q", got)
	}
	if got := deltas[1].NewCitation.CitationID; got != "spec/roche_v1.md:L5" {
		t.Errorf("new citation = %q", got)
	}
	if deltas[1].New != "| MSH-10 | ST | R |" {
		t.Errorf("unexpected table addition %q", deltas[1].New)
	}
}

func TestParsePatchEmpty(t *testing.T) {
	ps, err := ParsePatch("")
	if err != nil {
		t.Fatalf("ParsePatch empty failed: %v", err)
	}
	if len(ps.Files) != 0 || len(ps.Deltas()) != 0 {
		t.Errorf("expected nothing, got %+v", ps.Files)
	}
}

func TestUntypedTableBlockClassifiedAsTable(t *testing.T) {
	base := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 1, "markdown": "Shared intro", "content_hash": "S"}
	]}]`
	withTable := `[{"page": 1, "blocks": [
	  {"type": "text", "block_id": 1, "markdown": "Shared intro", "content_hash": "S"},
	  {"block_id": 2, "markdown_table": "| Field | Type | Opt |\n| MSH-10 | ST | R |", "content_hash": "T"}
	]}]`

	deltas := ByContentHash(doc(t, base), doc(t, withTable))
	if len(deltas) != 1 {
		t.Fatalf("expected 1 delta, got %d: %+v", len(deltas), deltas)
	}
	d := deltas[0]
	if d.BlockType != document.BlockTable {
		t.Fatalf("block type = %q, want %q", d.BlockType, document.BlockTable)
	}

	got := impact.Classify(d.Kind, d.Old, d.New, d.BlockType)
	if got.Level != model.ImpactHigh || got.ChangeType != model.ChangeFieldAdded {
		t.Errorf("classified as %s/%s, want HIGH/FIELD_ADDED", got.Level, got.ChangeType)
	}
}

const headingPatch = `diff --git a/spec/roche.md b/spec/roche.md
--- a/spec/roche.md
+++ b/spec/roche.md
@@ -1,2 +1,4 @@
 # Page 1
 Intro paragraph.
+# Page 2
+Message OBS.R02 definition
diff --git a/spec/liat.md b/spec/liat.md
--- a/spec/liat.md
+++ b/spec/liat.md
@@ -1,3 +1,1 @@
-# Page 3
-Message OBS.R01 definition
 Intro paragraph.
`

func TestPatchPageFromChangedHeadings(t *testing.T) {
	ps, err := ParsePatch(headingPatch)
	if err != nil {
		t.Fatal(err)
	}
	deltas := ps.Deltas()
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d: %+v", len(deltas), deltas)
	}

	add := deltas[0]
	if add.Kind != impact.Added || add.NewCitation == nil || add.NewCitation.Page != 2 {
		t.Errorf("added heading: got %s at %+v, want addition on page 2", add.Kind, add.NewCitation)
	}
	rm := deltas[1]
	if rm.Kind != impact.Removed || rm.OldCitation == nil || rm.OldCitation.Page != 3 {
		t.Errorf("deleted heading: got %s at %+v, want removal on page 3", rm.Kind, rm.OldCitation)
	}
}
