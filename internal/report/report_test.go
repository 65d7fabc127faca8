package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/review"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

var fixed = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func gen() *Generator {
	return &Generator{Now: func() time.Time { return fixed }}
}

var roche = Device{Vendor: "Roche", Model: "CobasLiat"}

func baselineDiff() *specdiff.SpecDiff {
	cit := model.Citation{CitationID: "p2_b5", Page: 2, BBox: model.BBox{100, 250, 500, 300}}
	inv := &inventory.MessageInventory{
		Recognized: []inventory.MessageType{
			{MessageID: "OBS.R01", Direction: model.DirectionToHost, Category: model.CategoryObservation},
			{MessageID: "Mes.custom.data.v2", Direction: model.DirectionToHost, Category: model.CategoryVendorSpecific},
		},
		Unrecognized: []inventory.MessageType{
			{MessageID: "XYZ.R99", Direction: model.DirectionToHost, Category: model.CategoryUnrecognized, Citations: []model.Citation{cit}},
		},
		Fields: []inventory.FieldSpec{
			{FieldID: "MSH-9", DataType: "ST", Optionality: "R", Citation: model.Citation{CitationID: "p2_b4", Page: 2}},
		},
		Categories: map[model.Category][]string{
			model.CategoryObservation:    {"OBS.R01→Host"},
			model.CategoryVendorSpecific: {"Mes.custom.data.v2→Host"},
			model.CategoryUnrecognized:   {"XYZ.R99→Host"},
		},
	}
	return &specdiff.SpecDiff{
		OldVersion:     specdiff.BaselineVersion,
		NewVersion:     "1.0",
		NewInventory:   inv,
		IsBaseline:     true,
		PDFHashChanged: true,
	}
}

func TestBaselineReport(t *testing.T) {
	name, content := gen().Render(baselineDiff(), roche)

	assert.Equal(t, "BASELINE_v1.0_20260301_093000.md", name)
	for _, want := range []string{
		"# Baseline Report v1.0\n",
		"**Device:** Roche CobasLiat\n",
		"**Generated:** 2026-03-01T09:30:00Z\n",
		"**Total Messages:** 3\n",
		"**Total Fields:** 1\n",
		"### Observation\nOBS.R01→Host\n",
		"### Vendor Specific\nMes.custom.data.v2→Host\n",
		"### Unrecognized\nXYZ.R99→Host\n",
		"- **XYZ.R99** →Host - Page 2, Citation p2_b5, BBox(100, 250, 500, 300)\n",
		"| `MSH-9` | - | ST | R | - | - | Page 2, Citation p2_b4 |\n",
		"## No Comparison\nThis is the initial onboarding - no previous version to compare.\n",
	} {
		assert.Contains(t, content, want)
	}
	assert.Less(t, strings.Index(content, "### Observation"), strings.Index(content, "### Vendor Specific"))
}

func TestChangeReport(t *testing.T) {
	old := model.Citation{CitationID: "p1_b1", Page: 1}
	added := model.Citation{CitationID: "p1_b3", Page: 1}
	changes := []specdiff.BlockChange{
		{ImpactLevel: model.ImpactHigh, ChangeType: model.ChangeMessageRemoved, Reasoning: "Message type removed - breaks existing parsers expecting this message", OldCitation: &old},
		{ImpactLevel: model.ImpactMedium, ChangeType: model.ChangeFieldAdded, Reasoning: "Optional field added - may require parser updates", NewCitation: &added},
		{ImpactLevel: model.ImpactLow, ChangeType: model.ChangeBlockAdded, Reasoning: "New content added"},
	}
	d := &specdiff.SpecDiff{
		OldVersion:      "1.0",
		NewVersion:      "1.1",
		Changes:         changes,
		RebuildRequired: true,
		PDFHashChanged:  true,
		Decision: specdiff.RebuildDecision{
			Required:       true,
			Reason:         "1 HIGH-impact changes + 1 MEDIUM-impact changes + (1 messages removed) require full rebuild",
			ImpactCounts:   impact.Counts{High: 1, Medium: 1, Low: 1},
			MessageChanges: specdiff.SetDelta{Removed: []string{"QCN.R01"}, Unchanged: []string{"OBS.R01"}},
			FieldChanges:   specdiff.SetDelta{Unchanged: []string{"MSH-9"}},
		},
	}

	name, content := gen().Render(d, roche)
	assert.Equal(t, "CHANGES_v1.0_to_v1.1_20260301_093000.md", name)
	for _, want := range []string{
		"# Change Report v1.0 → v1.1\n",
		"## Rebuild Decision\n**Required:** YES\n**Reason:** 1 HIGH-impact changes + 1 MEDIUM-impact changes + (1 messages removed) require full rebuild\n",
		"- HIGH: 1\n- MEDIUM: 1\n- LOW: 1\n",
		"## HIGH Impact Changes\n\n**Impact:** HIGH\n**Change:** MESSAGE_REMOVED\n**Old:** Page 1, Citation p1_b1, BBox(0, 0, 0, 0)\n**Reasoning:** Message type removed",
		"## MEDIUM Impact Changes\n\n**Impact:** MEDIUM\n**Change:** FIELD_ADDED\n**New:** Page 1, Citation p1_b3, BBox(0, 0, 0, 0)\n",
		"1 documentation-level changes (not listed).",
		"**Removed (1):** QCN.R01\n",
		"No fields added or removed (1 unchanged).",
	} {
		assert.Contains(t, content, want)
	}
	assert.NotContains(t, content, "New content added")
}

func TestNoChangeReport(t *testing.T) {
	d := &specdiff.SpecDiff{OldVersion: "1.0", NewVersion: "1.0.1"}
	name, content := gen().Render(d, roche)

	assert.Equal(t, "CHANGES_v1.0_to_v1.0.1_20260301_093000.md", name)
	assert.True(t, strings.HasPrefix(content, "# No Changes Detected\n"))
	assert.Contains(t, content, "**Versions:** v1.0 → v1.0.1\n")
	assert.Contains(t, content, "No changes detected - spec identical to v1.0.")
	assert.Contains(t, content, "PDF hash comparison shows no modifications.")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := gen().Write(dir, baselineDiff(), roche)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BASELINE_v1.0_20260301_093000.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Baseline Report v1.0")
}

func TestPendingReview(t *testing.T) {
	m := review.Messages{
		"Roche_CobasLiat": {
			"XYZ.R99": {ReviewStatus: model.ReviewPending, Citations: []model.Citation{{Page: 2}, {Page: 7}}},
			"ABC.R01": {ReviewStatus: model.ReviewApproved},
		},
		"Abbott_IStat": {
			"ZZQ.R01": {ReviewStatus: model.ReviewPending, Citations: []model.Citation{{Page: 4}}},
		},
	}

	name, content := gen().PendingReview(m)
	assert.Equal(t, "PENDING_REVIEW_20260301_093000.md", name)
	assert.Contains(t, content, "**Total Pending:** 2 messages\n")
	assert.Contains(t, content, "## Roche_CobasLiat\n- **XYZ.R99** (2× - Page 2, Page 7)\n")
	assert.Contains(t, content, "## Abbott_IStat\n- **ZZQ.R01** (1× - Page 4)\n")
	assert.Less(t, strings.Index(content, "## Abbott_IStat"), strings.Index(content, "## Roche_CobasLiat"))
	assert.NotContains(t, content, "ABC.R01")
	assert.Contains(t, content, "  --device-type Abbott_IStat \\\n  --message ZZQ.R01 \\\n  --action approve \\\n")
	assert.Contains(t, content, `--notes "Need to verify against POCT1-A2 standard"`)
}

func TestPendingReviewEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := gen().WritePendingReview(dir, review.Messages{})
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHighlightMarkdown(t *testing.T) {
	src := "# Change Report\n**Required:** YES\n- HIGH: 1"
	lines := HighlightMarkdown(src)

	require.Len(t, lines, 3)
	assert.Equal(t, "# Change Report", lines[0].Plain())
	assert.Equal(t, "- HIGH: 1", lines[2].Plain())
}

func TestPrintWithoutColorIsVerbatim(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, "# Title\nbody\n", false))
	assert.Equal(t, "# Title\nbody\n", buf.String())
}
