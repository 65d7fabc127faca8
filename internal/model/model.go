// Package model defines the core data types shared across specgate.
package model

import (
	"fmt"
	"strings"
)

// ImpactLevel categorizes how far a spec change reaches into generated parsers.
type ImpactLevel int

const (
	ImpactLow ImpactLevel = iota
	ImpactMedium
	ImpactHigh
)

func (l ImpactLevel) String() string {
	switch l {
	case ImpactLow:
		return "LOW"
	case ImpactMedium:
		return "MEDIUM"
	case ImpactHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParseImpactLevel parses "HIGH", "MEDIUM" or "LOW" (case-insensitive).
func ParseImpactLevel(s string) (ImpactLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return ImpactLow, nil
	case "MEDIUM":
		return ImpactMedium, nil
	case "HIGH":
		return ImpactHigh, nil
	}
	return ImpactLow, fmt.Errorf("unknown impact level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l ImpactLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *ImpactLevel) UnmarshalText(b []byte) error {
	v, err := ParseImpactLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ChangeType tags the specific kind of change detected between spec versions.
type ChangeType string

const (
	// HIGH impact
	ChangeMessageAdded       ChangeType = "MESSAGE_ADDED"
	ChangeMessageRemoved     ChangeType = "MESSAGE_REMOVED"
	ChangeFieldRenamed       ChangeType = "FIELD_RENAMED"
	ChangeFieldTypeChanged   ChangeType = "FIELD_TYPE_CHANGED"
	ChangeCardinalityChanged ChangeType = "CARDINALITY_CHANGED"
	ChangeOptionalityChanged ChangeType = "OPTIONALITY_CHANGED"

	// MEDIUM impact
	ChangeFieldAdded              ChangeType = "FIELD_ADDED"
	ChangeDefaultValueChanged     ChangeType = "DEFAULT_VALUE_CHANGED"
	ChangeVendorExtensionModified ChangeType = "VENDOR_EXTENSION_MODIFIED"
	ChangeTableStructureChanged   ChangeType = "TABLE_STRUCTURE_CHANGED"

	// LOW impact
	ChangeDocumentationUpdated ChangeType = "DOCUMENTATION_UPDATED"
	ChangeWhitespaceChanged    ChangeType = "WHITESPACE_CHANGED"
	ChangeFormattingChanged    ChangeType = "FORMATTING_CHANGED"
	ChangeTypoFixed            ChangeType = "TYPO_FIXED"
	ChangeExampleUpdated       ChangeType = "EXAMPLE_UPDATED"
	ChangeDiagramChanged       ChangeType = "DIAGRAM_CHANGED"

	// Block-level outcomes that carry no finer classification
	ChangeContentModified ChangeType = "CONTENT_MODIFIED"
	ChangeBlockAdded      ChangeType = "BLOCK_ADDED"
	ChangeBlockRemoved    ChangeType = "BLOCK_REMOVED"
)

// Direction is the flow of a protocol message between device and host.
type Direction string

const (
	DirectionToHost   Direction = "→Host"
	DirectionToDevice Direction = "←Device"
	DirectionBoth     Direction = "↔Both"
)

// Category is a message taxonomy bucket.
type Category string

const (
	CategoryObservation    Category = "observation"
	CategoryConfig         Category = "config"
	CategoryQC             Category = "qc"
	CategoryVendorSpecific Category = "vendor_specific"
	CategoryUnrecognized   Category = "unrecognized"
)

// ReviewStatus records the operator's decision on an auto-accepted message.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewDeferred ReviewStatus = "deferred"
)

// ParseReviewAction maps a CLI/API action verb to a review status.
func ParseReviewAction(action string) (ReviewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve", "approved":
		return ReviewApproved, nil
	case "reject", "rejected":
		return ReviewRejected, nil
	case "defer", "deferred":
		return ReviewDeferred, nil
	}
	return "", fmt.Errorf("unknown review action %q (want approve, reject or defer)", action)
}

// BBox is a bounding box as (x0, y0, x1, y1) in PDF points.
type BBox [4]float64

func (b BBox) String() string {
	return fmt.Sprintf("%g, %g, %g, %g", b[0], b[1], b[2], b[3])
}

// Citation links an extracted fact back to its location in the source PDF.
type Citation struct {
	CitationID  string `json:"citation_id"`
	Page        int    `json:"page"`
	BBox        BBox   `json:"bbox"`
	BlockID     string `json:"block_id,omitempty"`
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
}

func (c Citation) String() string {
	return fmt.Sprintf("Page %d, Citation %s, BBox(%s)", c.Page, c.CitationID, c.BBox)
}
