package specdiff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/inventory"
)

// SetDelta splits two id sets into added, removed and unchanged ids, each
// sorted.
type SetDelta struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Unchanged []string `json:"unchanged"`
}

// CompareSets computes the delta from oldIDs to newIDs. Duplicates are
// ignored.
func CompareSets(oldIDs, newIDs []string) SetDelta {
	oldSet := toSet(oldIDs)
	newSet := toSet(newIDs)

	d := SetDelta{Added: []string{}, Removed: []string{}, Unchanged: []string{}}
	for id := range newSet {
		if oldSet[id] {
			d.Unchanged = append(d.Unchanged, id)
		} else {
			d.Added = append(d.Added, id)
		}
	}
	for id := range oldSet {
		if !newSet[id] {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Unchanged)
	return d
}

func toSet(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// RebuildDecision is the verdict on whether a new spec version needs a full
// re-extraction and re-index.
type RebuildDecision struct {
	Required       bool          `json:"required"`
	Reason         string        `json:"reason"`
	ImpactCounts   impact.Counts `json:"impact_counts"`
	MessageChanges SetDelta      `json:"message_changes"`
	FieldChanges   SetDelta      `json:"field_changes"`
}

// Decide tallies the changes and compares the inventories. A rebuild is
// required exactly when at least one change is HIGH or MEDIUM.
func Decide(changes []BlockChange, oldInv, newInv *inventory.MessageInventory) RebuildDecision {
	var counts impact.Counts
	for _, c := range changes {
		counts.Add(c.ImpactLevel)
	}

	d := RebuildDecision{
		Required:       counts.RequiresRebuild(),
		ImpactCounts:   counts,
		MessageChanges: CompareSets(messageIDs(oldInv), messageIDs(newInv)),
		FieldChanges:   CompareSets(fieldIDs(oldInv), fieldIDs(newInv)),
	}
	d.Reason = reason(counts, d.MessageChanges)
	return d
}

func reason(counts impact.Counts, msgs SetDelta) string {
	if !counts.RequiresRebuild() {
		return fmt.Sprintf("%d LOW-impact documentation changes only - no rebuild needed", counts.Low)
	}

	var parts []string
	if counts.High > 0 {
		parts = append(parts, fmt.Sprintf("%d HIGH-impact changes", counts.High))
	}
	if counts.Medium > 0 {
		parts = append(parts, fmt.Sprintf("%d MEDIUM-impact changes", counts.Medium))
	}

	var summary []string
	if n := len(msgs.Added); n > 0 {
		summary = append(summary, fmt.Sprintf("%d messages added", n))
	}
	if n := len(msgs.Removed); n > 0 {
		summary = append(summary, fmt.Sprintf("%d messages removed", n))
	}
	if len(summary) > 0 {
		parts = append(parts, "("+strings.Join(summary, ", ")+")")
	}
	return strings.Join(parts, " + ") + " require full rebuild"
}

func messageIDs(inv *inventory.MessageInventory) []string {
	if inv == nil {
		return nil
	}
	return inv.MessageIDs()
}

func fieldIDs(inv *inventory.MessageInventory) []string {
	if inv == nil {
		return nil
	}
	return inv.FieldIDs()
}
