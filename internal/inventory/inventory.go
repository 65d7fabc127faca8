// Package inventory recognizes POCT1 message types and field definitions in a
// parsed spec document and categorizes them against a standards taxonomy.
package inventory

import (
	"sort"

	"github.com/sprite-ai/specgate/internal/model"
)

// MessageType is one protocol message found in a spec version.
type MessageType struct {
	MessageID string           `json:"message_id"`
	Direction model.Direction  `json:"direction"`
	Category  model.Category   `json:"category"`
	Citations []model.Citation `json:"citations"`
	// Malformed marks an unrecognized id whose prefix is not three uppercase letters.
	Malformed bool `json:"malformed,omitempty"`
}

// Display is the "{id}{direction}" form used in category summaries.
func (m MessageType) Display() string {
	return m.MessageID + string(m.Direction)
}

// FieldSpec is a field definition taken from a table row.
type FieldSpec struct {
	FieldID     string         `json:"field_id"`
	Name        string         `json:"name,omitempty"`
	DataType    string         `json:"data_type,omitempty"`
	Optionality string         `json:"optionality,omitempty"`
	Cardinality string         `json:"cardinality,omitempty"`
	Length      string         `json:"length,omitempty"`
	Description string         `json:"description,omitempty"`
	Citation    model.Citation `json:"citation"`
}

// MessageInventory is the parse result for one spec version.
type MessageInventory struct {
	Recognized   []MessageType               `json:"recognized_messages"`
	Unrecognized []MessageType               `json:"unrecognized_messages"`
	Fields       []FieldSpec                 `json:"field_specs"`
	Categories   map[model.Category][]string `json:"categories"`
}

// AllMessages returns recognized then unrecognized messages.
func (inv *MessageInventory) AllMessages() []MessageType {
	out := make([]MessageType, 0, len(inv.Recognized)+len(inv.Unrecognized))
	out = append(out, inv.Recognized...)
	return append(out, inv.Unrecognized...)
}

// MessageIDs returns every message id, recognized or not.
func (inv *MessageInventory) MessageIDs() []string {
	var ids []string
	for _, m := range inv.AllMessages() {
		ids = append(ids, m.MessageID)
	}
	return ids
}

// FieldIDs returns every field id.
func (inv *MessageInventory) FieldIDs() []string {
	var ids []string
	for _, f := range inv.Fields {
		ids = append(ids, f.FieldID)
	}
	return ids
}

// Message looks up a message by id.
func (inv *MessageInventory) Message(id string) (MessageType, bool) {
	for _, m := range inv.AllMessages() {
		if m.MessageID == id {
			return m, true
		}
	}
	return MessageType{}, false
}

var categoryOrder = []model.Category{
	model.CategoryObservation,
	model.CategoryConfig,
	model.CategoryQC,
	model.CategoryVendorSpecific,
	model.CategoryUnrecognized,
}

// SortedCategories returns the populated categories, well-known ones first
// and any custom taxonomy categories after them in name order.
func (inv *MessageInventory) SortedCategories() []model.Category {
	known := make(map[model.Category]bool, len(categoryOrder))
	var out []model.Category
	for _, c := range categoryOrder {
		known[c] = true
		if len(inv.Categories[c]) > 0 {
			out = append(out, c)
		}
	}
	var extra []model.Category
	for c, msgs := range inv.Categories {
		if !known[c] && len(msgs) > 0 {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Summary counts messages per category.
type Summary struct {
	Observation   int `json:"observation_count"`
	Config        int `json:"config_count"`
	QC            int `json:"qc_count"`
	Vendor        int `json:"vendor_count"`
	Unrecognized  int `json:"unrecognized_count"`
	PendingReview int `json:"pending_review_count"`
	Fields        int `json:"field_count"`
}

// Summary tallies the inventory. Every unrecognized message is pending review.
func (inv *MessageInventory) Summary() Summary {
	s := Summary{
		Unrecognized:  len(inv.Unrecognized),
		PendingReview: len(inv.Unrecognized),
		Fields:        len(inv.Fields),
	}
	for _, m := range inv.Recognized {
		switch m.Category {
		case model.CategoryObservation:
			s.Observation++
		case model.CategoryConfig:
			s.Config++
		case model.CategoryQC:
			s.QC++
		case model.CategoryVendorSpecific:
			s.Vendor++
		}
	}
	return s
}

func buildCategories(msgs ...[]MessageType) map[model.Category][]string {
	out := make(map[model.Category][]string)
	for _, list := range msgs {
		for _, m := range list {
			out[m.Category] = append(out[m.Category], m.Display())
		}
	}
	return out
}
