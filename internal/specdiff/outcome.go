package specdiff

import "strings"

// Outcome is where a version transition ends up.
type Outcome string

const (
	OutcomeBaseline           Outcome = "BASELINE"
	OutcomeNoChange           Outcome = "NO_CHANGE"
	OutcomeBlocked            Outcome = "REBUILD_REQUIRED"
	OutcomeRebuildApproved    Outcome = "REBUILD_APPROVED"
	OutcomeRebuildNotRequired Outcome = "REBUILD_NOT_REQUIRED"
)

// Proceeds reports whether the transition may be recorded.
func (o Outcome) Proceeds() bool {
	return o != OutcomeBlocked
}

// Rebuilds reports whether the transition needs a fresh index.
func (o Outcome) Rebuilds() bool {
	return o == OutcomeBaseline || o == OutcomeRebuildApproved
}

// Gate applies the approval policy. A required rebuild without a non-blank
// approval reason is blocked.
func Gate(d *SpecDiff, approval string) Outcome {
	switch {
	case d.IsBaseline:
		return OutcomeBaseline
	case !d.PDFHashChanged:
		return OutcomeNoChange
	case !d.RebuildRequired:
		return OutcomeRebuildNotRequired
	case strings.TrimSpace(approval) == "":
		return OutcomeBlocked
	default:
		return OutcomeRebuildApproved
	}
}
