// Package impact classifies block-level spec changes by how far they reach
// into generated protocol parsers.
package impact

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/pattern"
)

// Kind is the shape of a block-level change.
type Kind int

const (
	Added Kind = iota
	Removed
	Modified
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// ParseKind parses "added", "removed" or "modified".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "added":
		return Added, nil
	case "removed":
		return Removed, nil
	case "modified":
		return Modified, nil
	}
	return Modified, fmt.Errorf("unknown change kind %q", s)
}

// Impact is the classification of one change. Reasoning is written for the
// operator deciding whether to approve a rebuild.
type Impact struct {
	Level      model.ImpactLevel `json:"level"`
	ChangeType model.ChangeType  `json:"change_type"`
	Reasoning  string            `json:"reasoning"`
	OldValue   string            `json:"old_value,omitempty"`
	NewValue   string            `json:"new_value,omitempty"`
}

func (i Impact) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Level, i.ChangeType, i.Reasoning)
}

// change is what the rules look at.
type change struct {
	old, new  string
	blockType string
}

func (c change) isTable() bool {
	return c.blockType == document.BlockTable
}

// A rule returns an impact and true when it applies. Rules are tried in
// order and the first that applies wins.
type rule func(c change) (Impact, bool)

// Classify runs the rule chain for kind. oldContent is ignored for
// additions and newContent for removals.
func Classify(kind Kind, oldContent, newContent, blockType string) Impact {
	c := change{old: oldContent, new: newContent, blockType: blockType}

	var rules []rule
	switch kind {
	case Added:
		rules = additionRules
	case Removed:
		rules = removalRules
	default:
		if oldContent == newContent {
			return Impact{
				Level:      model.ImpactLow,
				ChangeType: model.ChangeWhitespaceChanged,
				Reasoning:  "No meaningful change detected",
			}
		}
		rules = modificationRules
	}

	for _, r := range rules {
		if imp, ok := r(c); ok {
			return imp
		}
	}
	// Each chain ends in a catch-all; this is unreachable.
	return Impact{Level: model.ImpactLow, ChangeType: model.ChangeContentModified}
}

// ClassifyAddition classifies a block present only in the new version.
func ClassifyAddition(content, blockType string) Impact {
	return Classify(Added, "", content, blockType)
}

// ClassifyRemoval classifies a block present only in the old version.
func ClassifyRemoval(content, blockType string) Impact {
	return Classify(Removed, content, "", blockType)
}

// ClassifyModification classifies a block whose content changed in place.
func ClassifyModification(oldContent, newContent, blockType string) Impact {
	return Classify(Modified, oldContent, newContent, blockType)
}

// ContainsMessageType reports whether s mentions a SEGMENT.TRIGGER message.
func ContainsMessageType(s string) bool {
	return pattern.MessageStandard.MatchString(s)
}

// MessageTypes lists the message prefixes mentioned in s, or a short excerpt
// of s when there are none.
func MessageTypes(s string) string {
	var prefixes []string
	for _, m := range pattern.MessageStandard.FindAllStringSubmatch(s, -1) {
		prefixes = append(prefixes, m[1])
	}
	if len(prefixes) == 0 {
		return document.Truncate(s, 50)
	}
	return strings.Join(prefixes, ", ")
}

// ContainsFieldDefinition reports whether s mentions a SEG-N field.
func ContainsFieldDefinition(s string) bool {
	return pattern.FieldStandard.MatchString(s)
}

// FieldInfo lists the SEG-N fields mentioned in s, or a short excerpt of s.
func FieldInfo(s string) string {
	var ids []string
	for _, m := range pattern.FieldStandard.FindAllStringSubmatch(s, -1) {
		ids = append(ids, m[1]+"-"+m[2])
	}
	if len(ids) == 0 {
		return document.Truncate(s, 50)
	}
	return strings.Join(ids, ", ")
}

// FieldName returns the value of the first "Field:" or "Name:" label.
func FieldName(s string) string {
	return firstGroup(pattern.FieldLabel.FindStringSubmatch(s))
}

// DataType returns the first POCT1 data type token in s.
func DataType(s string) string {
	return firstGroup(pattern.DataType.FindStringSubmatch(s))
}

// Optionality returns the first R, O or C token in s.
func Optionality(s string) string {
	return firstGroup(pattern.Optionality.FindStringSubmatch(s))
}

// IsRequiredField reports whether the field in s is marked required.
func IsRequiredField(s string) bool {
	return Optionality(s) == "R"
}

// ContainsVendorExtension reports whether s mentions a Z segment.
func ContainsVendorExtension(s string) bool {
	return pattern.VendorSegment.MatchString(s)
}

func firstGroup(m []string) string {
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
