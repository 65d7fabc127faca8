// Package specdiff compares two versions of a device spec and decides
// whether the change requires a rebuild.
package specdiff

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sprite-ai/specgate/internal/diff"
	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/logger"
	"github.com/sprite-ai/specgate/internal/model"
)

// PreviewLength caps the content kept on a BlockChange.
const PreviewLength = 200

// BlockChange is one classified difference between two versions. A pure
// addition has no old side and a pure removal no new side.
type BlockChange struct {
	ImpactLevel model.ImpactLevel `json:"impact_level"`
	ChangeType  model.ChangeType  `json:"change_type"`
	Reasoning   string            `json:"reasoning"`
	OldContent  string            `json:"old_content,omitempty"`
	NewContent  string            `json:"new_content,omitempty"`
	OldCitation *model.Citation   `json:"old_citation,omitempty"`
	NewCitation *model.Citation   `json:"new_citation,omitempty"`
}

// Classify runs the impact classifier over each delta.
func Classify(deltas []diff.Delta) []BlockChange {
	out := make([]BlockChange, 0, len(deltas))
	for _, d := range deltas {
		imp := impact.Classify(d.Kind, d.Old, d.New, d.BlockType)
		out = append(out, BlockChange{
			ImpactLevel: imp.Level,
			ChangeType:  imp.ChangeType,
			Reasoning:   imp.Reasoning,
			OldContent:  document.Truncate(d.Old, PreviewLength),
			NewContent:  document.Truncate(d.New, PreviewLength),
			OldCitation: d.OldCitation,
			NewCitation: d.NewCitation,
		})
	}
	return out
}

// ByLevel returns the changes at level, in order.
func ByLevel(changes []BlockChange, level model.ImpactLevel) []BlockChange {
	var out []BlockChange
	for _, c := range changes {
		if c.ImpactLevel == level {
			out = append(out, c)
		}
	}
	return out
}

// BaselineVersion is the old version recorded for a first onboarding.
const BaselineVersion = "none"

// SpecDiff is the result of one comparison. It is not modified after
// Compare or Baseline returns it.
type SpecDiff struct {
	OldVersion      string                      `json:"old_version"`
	NewVersion      string                      `json:"new_version"`
	Changes         []BlockChange               `json:"changes"`
	OldInventory    *inventory.MessageInventory `json:"old_inventory,omitempty"`
	NewInventory    *inventory.MessageInventory `json:"new_inventory,omitempty"`
	RebuildRequired bool                        `json:"rebuild_required"`
	IsBaseline      bool                        `json:"is_baseline"`
	PDFHashChanged  bool                        `json:"pdf_hash_changed"`
	Decision        RebuildDecision             `json:"decision"`
	ComparedAt      time.Time                   `json:"compared_at"`
}

// Snapshot is one version of a device spec. Document is used when set;
// otherwise DocumentPath is loaded on demand.
type Snapshot struct {
	Version      string
	PDFHash      string
	DocumentPath string
	Document     *document.Document
}

func (s Snapshot) load() (*document.Document, error) {
	if s.Document != nil {
		return s.Document, nil
	}
	if s.DocumentPath == "" {
		return nil, fmt.Errorf("version %s has no document", s.Version)
	}
	return document.Load(s.DocumentPath)
}

// Detector compares spec versions.
type Detector struct {
	parser   *inventory.Parser
	strategy diff.Strategy
	log      zerolog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithStrategy selects the block diff strategy. The default compares by
// content hash.
func WithStrategy(s diff.Strategy) Option {
	return func(d *Detector) { d.strategy = s }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Detector) { d.log = l }
}

// NewDetector returns a detector that parses inventories with p.
func NewDetector(p *inventory.Parser, opts ...Option) *Detector {
	d := &Detector{parser: p, strategy: diff.ByContentHash, log: logger.Component("specdiff")}
	for _, o := range opts {
		o(d)
	}
	return d
}

var timeNow = time.Now

// Baseline parses the first version of a device spec.
func (d *Detector) Baseline(snap Snapshot, deviceType string) (*SpecDiff, error) {
	doc, err := snap.load()
	if err != nil {
		return nil, err
	}
	inv, err := d.parser.Parse(doc, deviceType)
	if err != nil {
		return nil, fmt.Errorf("parsing v%s: %w", snap.Version, err)
	}

	d.log.Info().Str("version", snap.Version).
		Int("messages", len(inv.Recognized)+len(inv.Unrecognized)).
		Int("fields", len(inv.Fields)).
		Msg("baseline parsed")

	return &SpecDiff{
		OldVersion:     BaselineVersion,
		NewVersion:     snap.Version,
		Changes:        []BlockChange{},
		NewInventory:   inv,
		IsBaseline:     true,
		PDFHashChanged: true,
		Decision:       Decide(nil, nil, inv),
		ComparedAt:     timeNow(),
	}, nil
}

// Compare diffs two versions. When both PDF hashes are known and equal the
// documents are not read at all. A parse failure on either side fails the
// whole comparison.
func (d *Detector) Compare(oldSnap, newSnap Snapshot, deviceType string) (*SpecDiff, error) {
	if oldSnap.PDFHash != "" && oldSnap.PDFHash == newSnap.PDFHash {
		d.log.Info().Str("old", oldSnap.Version).Str("new", newSnap.Version).Msg("pdf hash unchanged")
		return &SpecDiff{
			OldVersion: oldSnap.Version,
			NewVersion: newSnap.Version,
			Changes:    []BlockChange{},
			Decision: RebuildDecision{
				Reason:         fmt.Sprintf("Spec identical to v%s - no rebuild needed", oldSnap.Version),
				MessageChanges: CompareSets(nil, nil),
				FieldChanges:   CompareSets(nil, nil),
			},
			ComparedAt: timeNow(),
		}, nil
	}

	oldDoc, err := oldSnap.load()
	if err != nil {
		return nil, err
	}
	newDoc, err := newSnap.load()
	if err != nil {
		return nil, err
	}

	oldInv, err := d.parser.Parse(oldDoc, deviceType)
	if err != nil {
		return nil, fmt.Errorf("parsing v%s: %w", oldSnap.Version, err)
	}
	newInv, err := d.parser.Parse(newDoc, deviceType)
	if err != nil {
		return nil, fmt.Errorf("parsing v%s: %w", newSnap.Version, err)
	}

	changes := Classify(d.strategy(oldDoc, newDoc))
	decision := Decide(changes, oldInv, newInv)

	d.log.Info().
		Str("old", oldSnap.Version).
		Str("new", newSnap.Version).
		Int("changes", len(changes)).
		Stringer("impact", decision.ImpactCounts).
		Bool("rebuild_required", decision.Required).
		Msg("versions compared")

	return &SpecDiff{
		OldVersion:      oldSnap.Version,
		NewVersion:      newSnap.Version,
		Changes:         changes,
		OldInventory:    oldInv,
		NewInventory:    newInv,
		RebuildRequired: decision.Required,
		PDFHashChanged:  true,
		Decision:        decision,
		ComparedAt:      timeNow(),
	}, nil
}
