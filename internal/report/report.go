// Package report renders spec comparisons and the review queue as markdown.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/review"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

// TimestampLayout is used in report file names.
const TimestampLayout = "20060102_150405"

func BaselineFilename(version, ts string) string {
	return fmt.Sprintf("BASELINE_v%s_%s.md", version, ts)
}

func ChangesFilename(oldVersion, newVersion, ts string) string {
	return fmt.Sprintf("CHANGES_v%s_to_v%s_%s.md", oldVersion, newVersion, ts)
}

func PendingReviewFilename(ts string) string {
	return fmt.Sprintf("PENDING_REVIEW_%s.md", ts)
}

// Device identifies whose spec a report is about.
type Device struct {
	Vendor string
	Model  string
}

func (d Device) String() string {
	return d.Vendor + " " + d.Model
}

// Generator renders reports. Now is the clock used for timestamps.
type Generator struct {
	Now func() time.Time
}

// NewGenerator returns a generator on the wall clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// Render picks the report variant for d and returns its file name and
// content.
func (g *Generator) Render(d *specdiff.SpecDiff, dev Device) (name, content string) {
	now := g.now()
	ts := now.Format(TimestampLayout)
	switch {
	case d.IsBaseline:
		return BaselineFilename(d.NewVersion, ts), g.baseline(d, dev, now)
	case !d.PDFHashChanged:
		return ChangesFilename(d.OldVersion, d.NewVersion, ts), g.noChange(d, dev, now)
	default:
		return ChangesFilename(d.OldVersion, d.NewVersion, ts), g.changes(d, dev, now)
	}
}

// Write renders d into dir and returns the report path.
func (g *Generator) Write(dir string, d *specdiff.SpecDiff, dev Device) (string, error) {
	name, content := g.Render(d, dev)
	return writeReport(dir, name, content)
}

func writeReport(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func (g *Generator) baseline(d *specdiff.SpecDiff, dev Device, now time.Time) string {
	inv := d.NewInventory
	if inv == nil {
		inv = &inventory.MessageInventory{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Baseline Report v%s\n", d.NewVersion)
	fmt.Fprintf(&b, "**Device:** %s\n", dev)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(time.RFC3339))

	b.WriteString("## Extraction Summary\n")
	fmt.Fprintf(&b, "**Total Messages:** %d\n", len(inv.Recognized)+len(inv.Unrecognized))
	fmt.Fprintf(&b, "**Total Fields:** %d\n\n", len(inv.Fields))

	b.WriteString("## Message Inventory\n")
	for _, cat := range inv.SortedCategories() {
		fmt.Fprintf(&b, "\n### %s\n", CategoryTitle(cat))
		b.WriteString(strings.Join(inv.Categories[cat], ", "))
		b.WriteString("\n")
	}

	if len(inv.Unrecognized) > 0 {
		b.WriteString("\n### ⚠️ Unrecognized Messages (Auto-Accepted for Review)\n")
		for _, m := range inv.Unrecognized {
			cits := make([]string, len(m.Citations))
			for i, c := range m.Citations {
				cits[i] = c.String()
			}
			fmt.Fprintf(&b, "- **%s** %s - %s\n", m.MessageID, m.Direction, strings.Join(cits, ", "))
		}
	}

	b.WriteString("\n## Field Specifications\n")
	fmt.Fprintf(&b, "**Total:** %d fields\n", len(inv.Fields))
	if len(inv.Fields) > 0 {
		b.WriteString("\n| Field | Name | Type | Opt | Card | Len | Location |\n")
		b.WriteString("|-------|------|------|-----|------|-----|----------|\n")
		for _, f := range inv.Fields {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s | %s | Page %d, Citation %s |\n",
				f.FieldID, dash(f.Name), dash(f.DataType), dash(f.Optionality),
				dash(f.Cardinality), dash(f.Length), f.Citation.Page, f.Citation.CitationID)
		}
	}

	b.WriteString("\n## No Comparison\n")
	b.WriteString("This is the initial onboarding - no previous version to compare.\n")
	return b.String()
}

func (g *Generator) changes(d *specdiff.SpecDiff, dev Device, now time.Time) string {
	dec := d.Decision

	var b strings.Builder
	fmt.Fprintf(&b, "# Change Report v%s → v%s\n", d.OldVersion, d.NewVersion)
	fmt.Fprintf(&b, "**Device:** %s\n", dev)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(time.RFC3339))

	b.WriteString("## Rebuild Decision\n")
	fmt.Fprintf(&b, "**Required:** %s\n", yesNo(dec.Required))
	fmt.Fprintf(&b, "**Reason:** %s\n\n", dec.Reason)

	b.WriteString("## Impact Summary\n")
	fmt.Fprintf(&b, "- HIGH: %d\n", dec.ImpactCounts.High)
	fmt.Fprintf(&b, "- MEDIUM: %d\n", dec.ImpactCounts.Medium)
	fmt.Fprintf(&b, "- LOW: %d\n\n", dec.ImpactCounts.Low)

	for _, level := range []model.ImpactLevel{model.ImpactHigh, model.ImpactMedium} {
		changes := specdiff.ByLevel(d.Changes, level)
		if len(changes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s Impact Changes\n", level)
		for _, c := range changes {
			writeChange(&b, c)
		}
		b.WriteString("\n")
	}
	if dec.ImpactCounts.Low > 0 {
		b.WriteString("## LOW Impact Changes\n")
		fmt.Fprintf(&b, "%d documentation-level changes (not listed).\n\n", dec.ImpactCounts.Low)
	}

	writeSetDelta(&b, "Message Changes", "messages", dec.MessageChanges)
	writeSetDelta(&b, "Field Changes", "fields", dec.FieldChanges)
	return b.String()
}

func writeChange(b *strings.Builder, c specdiff.BlockChange) {
	fmt.Fprintf(b, "\n**Impact:** %s\n", c.ImpactLevel)
	fmt.Fprintf(b, "**Change:** %s\n", c.ChangeType)
	if c.OldCitation != nil {
		fmt.Fprintf(b, "**Old:** %s\n", c.OldCitation)
	}
	if c.NewCitation != nil {
		fmt.Fprintf(b, "**New:** %s\n", c.NewCitation)
	}
	fmt.Fprintf(b, "**Reasoning:** %s\n", c.Reasoning)
}

func writeSetDelta(b *strings.Builder, title, noun string, d specdiff.SetDelta) {
	fmt.Fprintf(b, "## %s\n", title)
	if len(d.Added) == 0 && len(d.Removed) == 0 {
		fmt.Fprintf(b, "No %s added or removed (%d unchanged).\n\n", noun, len(d.Unchanged))
		return
	}
	if len(d.Added) > 0 {
		fmt.Fprintf(b, "**Added (%d):** %s\n", len(d.Added), strings.Join(d.Added, ", "))
	}
	if len(d.Removed) > 0 {
		fmt.Fprintf(b, "**Removed (%d):** %s\n", len(d.Removed), strings.Join(d.Removed, ", "))
	}
	fmt.Fprintf(b, "**Unchanged:** %d\n\n", len(d.Unchanged))
}

func (g *Generator) noChange(d *specdiff.SpecDiff, dev Device, now time.Time) string {
	var b strings.Builder
	b.WriteString("# No Changes Detected\n\n")
	fmt.Fprintf(&b, "**Device:** %s\n", dev)
	fmt.Fprintf(&b, "**Versions:** v%s → v%s\n", d.OldVersion, d.NewVersion)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(time.RFC3339))
	b.WriteString("## Status\n")
	fmt.Fprintf(&b, "No changes detected - spec identical to v%s.\n\n", d.OldVersion)
	b.WriteString("PDF hash comparison shows no modifications.\n")
	return b.String()
}

// PendingReview renders the review queue across all devices. It returns an
// empty name when nothing is pending.
func (g *Generator) PendingReview(m review.Messages) (name, content string) {
	pending := review.Pending(m)
	if len(pending) == 0 {
		return "", ""
	}
	now := g.now()

	var b strings.Builder
	b.WriteString("# Pending Message Review\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format(time.RFC3339))
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "**Total Pending:** %d messages\n", len(pending))

	device := ""
	for _, p := range pending {
		if p.DeviceType != device {
			device = p.DeviceType
			fmt.Fprintf(&b, "\n## %s\n", device)
		}
		pages := make([]string, len(p.Entry.Citations))
		for i, c := range p.Entry.Citations {
			pages[i] = fmt.Sprintf("Page %d", c.Page)
		}
		fmt.Fprintf(&b, "- **%s** (%d× - %s)\n", p.MessageID, len(p.Entry.Citations), strings.Join(pages, ", "))
	}

	b.WriteString("\n## How to Review\n\n")
	b.WriteString("| Action | When to Use |\n")
	b.WriteString("|--------|-------------|\n")
	b.WriteString("| `approve` | Valid vendor-specific message, add to device profile |\n")
	b.WriteString("| `reject` | Extraction error (e.g., field name mistaken for message) |\n")
	b.WriteString("| `defer` | Needs investigation, keep in pending queue |\n")

	first := pending[0]
	b.WriteString("\n## Example Commands\n```bash\n")
	examples := []struct{ comment, action, notes string }{
		{"Approve as valid vendor message", "approve", "Confirmed vendor-specific message"},
		{"Reject as extraction error", "reject", "Not a message - field name extracted in error"},
		{"Defer for later investigation", "defer", "Need to verify against POCT1-A2 standard"},
	}
	for i, ex := range examples {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s\n", ex.comment)
		b.WriteString("specgate review-message \\\n")
		fmt.Fprintf(&b, "  --device-type %s \\\n", first.DeviceType)
		fmt.Fprintf(&b, "  --message %s \\\n", first.MessageID)
		fmt.Fprintf(&b, "  --action %s \\\n", ex.action)
		fmt.Fprintf(&b, "  --notes %q\n", ex.notes)
	}
	b.WriteString("```\n")

	return PendingReviewFilename(now.Format(TimestampLayout)), b.String()
}

// WritePendingReview writes the review queue report into dir. It writes
// nothing and returns "" when nothing is pending.
func (g *Generator) WritePendingReview(dir string, m review.Messages) (string, error) {
	name, content := g.PendingReview(m)
	if name == "" {
		return "", nil
	}
	return writeReport(dir, name, content)
}

// CategoryTitle turns a category key such as "vendor_specific" into a heading.
func CategoryTitle(c model.Category) string {
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
