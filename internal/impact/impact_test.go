package impact

import (
	"strings"
	"testing"

	"github.com/sprite-ai/specgate/internal/model"
)

func TestClassifyAddition(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		blockType string
		level     model.ImpactLevel
		change    model.ChangeType
		value     string
	}{
		{"message", "New message type OBS.R02 added", "text", model.ImpactHigh, model.ChangeMessageAdded, "OBS"},
		{"required field", "| Field | Type | Opt |\n| MSH-9 | ST | R |", "table", model.ImpactHigh, model.ChangeFieldAdded, "MSH-9"},
		{"optional field", "| Field | Type | Opt |\n| OBX-17 | CE | O |", "table", model.ImpactMedium, model.ChangeFieldAdded, "OBX-17"},
		{"field without optionality", "| Field |\n| OBX-17 |", "table", model.ImpactMedium, model.ChangeFieldAdded, "OBX-17"},
		{"field in text is not a field addition", "MSH-9 contains the message type", "text", model.ImpactLow, model.ChangeBlockAdded, "MSH-9 contains the message type"},
		{"vendor extension", "Vendor extension ZXX added for custom data", "text", model.ImpactMedium, model.ChangeVendorExtensionModified, "Vendor extension ZXX added for custom data"},
		{"documentation", "See the appendix for examples.", "text", model.ImpactLow, model.ChangeBlockAdded, "See the appendix for examples."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyAddition(tt.content, tt.blockType)
			if got.Level != tt.level || got.ChangeType != tt.change {
				t.Fatalf("got %s/%s, want %s/%s", got.Level, got.ChangeType, tt.level, tt.change)
			}
			if got.NewValue != tt.value {
				t.Errorf("NewValue = %q, want %q", got.NewValue, tt.value)
			}
			if got.Reasoning == "" {
				t.Error("reasoning must not be empty")
			}
		})
	}
}

func TestRequiredFieldAdditionAlwaysHigh(t *testing.T) {
	for _, opt := range []string{"R", "O", "C", ""} {
		content := "| Field | Type | Opt |\n| PID-5 | ST | " + opt + " |"
		got := ClassifyAddition(content, "table")
		want := model.ImpactMedium
		if opt == "R" {
			want = model.ImpactHigh
		}
		if got.Level != want {
			t.Errorf("optionality %q: got %s, want %s", opt, got.Level, want)
		}
	}
}

func TestClassifyRemoval(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		blockType string
		level     model.ImpactLevel
		change    model.ChangeType
		reasoning string
	}{
		{"message", "Message type QCN.R01 definition", "text", model.ImpactHigh, model.ChangeMessageRemoved,
			"Message type removed - breaks existing parsers expecting this message"},
		{"optional field", "| Field | Opt |\n| OBX-17 | O |", "table", model.ImpactHigh, model.ChangeBlockRemoved,
			"Field definition removed - breaks field mapping and validation"},
		{"documentation", "Historical note about version 1.", "text", model.ImpactLow, model.ChangeBlockRemoved,
			"Content removed - likely documentation cleanup, no functional impact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyRemoval(tt.content, tt.blockType)
			if got.Level != tt.level || got.ChangeType != tt.change {
				t.Fatalf("got %s/%s, want %s/%s", got.Level, got.ChangeType, tt.level, tt.change)
			}
			if got.Reasoning != tt.reasoning {
				t.Errorf("Reasoning = %q, want %q", got.Reasoning, tt.reasoning)
			}
		})
	}
}

func TestClassifyModification(t *testing.T) {
	tests := []struct {
		name      string
		old, new  string
		blockType string
		level     model.ImpactLevel
		change    model.ChangeType
	}{
		{"field renamed", "Field: PatientID, Type: ST", "Field: PatientIdent, Type: ST", "table", model.ImpactHigh, model.ChangeFieldRenamed},
		{"type changed", "Field: PatientID, Type: ST, Opt: R", "Field: PatientID, Type: CX, Opt: R", "table", model.ImpactHigh, model.ChangeFieldTypeChanged},
		{"requirement changed", "Field: SampleID, Type: ST, Opt: R", "Field: SampleID, Type: ST, Opt: O", "table", model.ImpactHigh, model.ChangeCardinalityChanged},
		{"type change without field label", "Type: ST", "Type: CX", "table", model.ImpactHigh, model.ChangeFieldTypeChanged},
		{"whitespace", "Field: MSH-9", "Field:  MSH-9  ", "text", model.ImpactLow, model.ChangeWhitespaceChanged},
		{"capitalization", "PATIENT ID", "Patient ID", "text", model.ImpactLow, model.ChangeTypoFixed},
		{"table edit", "| Field | Type | Opt |\n| MSH-9 | ST | R |", "| Field | Type | Opt | Length |\n| MSH-9 | ST | R | 20 |", "table", model.ImpactMedium, model.ChangeTableStructureChanged},
		{"free text edit", "This field contains patient data", "This field contains patient demographic information", "text", model.ImpactLow, model.ChangeDocumentationUpdated},
		{"same content", "Same content", "Same content", "text", model.ImpactLow, model.ChangeWhitespaceChanged},
		{"empty", "", "", "text", model.ImpactLow, model.ChangeWhitespaceChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyModification(tt.old, tt.new, tt.blockType)
			if got.Level != tt.level || got.ChangeType != tt.change {
				t.Fatalf("got %s/%s (%s), want %s/%s", got.Level, got.ChangeType, got.Reasoning, tt.level, tt.change)
			}
		})
	}
}

func TestModificationReasoningNamesValues(t *testing.T) {
	got := ClassifyModification("Type: ST", "Type: CX", "table")
	if got.Reasoning != "Field type changed - breaks data validation (ST → CX)" {
		t.Errorf("unexpected reasoning %q", got.Reasoning)
	}
	if got.OldValue != "ST" || got.NewValue != "CX" {
		t.Errorf("values = %q/%q, want ST/CX", got.OldValue, got.NewValue)
	}
}

func TestTableEditRanksAboveTextEdit(t *testing.T) {
	text := ClassifyModification("old", "Some content modification", "text")
	table := ClassifyModification("old", "Some content modification", "table")
	if table.Level <= text.Level {
		t.Errorf("table edit %s should outrank text edit %s", table.Level, text.Level)
	}
}

func TestHelpers(t *testing.T) {
	if got := MessageTypes("Supports OBS.R01, QCN.R01, and ORU.R01 messages"); got != "OBS, QCN, ORU" {
		t.Errorf("MessageTypes = %q", got)
	}
	if got := FieldInfo("Fields: MSH-9, OBX-3, PID-5"); got != "MSH-9, OBX-3, PID-5" {
		t.Errorf("FieldInfo = %q", got)
	}
	if !IsRequiredField("Field: MSH-9, Type: ST, Optionality: R") {
		t.Error("expected required field")
	}
	if IsRequiredField("Field: OBX-17, Type: CE, Optionality: O") {
		t.Error("expected optional field")
	}
	if !ContainsVendorExtension("Vendor segment ZAB is supported") {
		t.Error("expected vendor extension")
	}
	if ContainsVendorExtension("Standard MSH segment only") {
		t.Error("unexpected vendor extension")
	}
	if ContainsMessageType("This is just documentation text") {
		t.Error("unexpected message type")
	}
	long := strings.Repeat("x", 300)
	if got := ClassifyAddition(long, "text").NewValue; len(got) != 100 {
		t.Errorf("value length = %d, want 100", len(got))
	}
}

func TestCounts(t *testing.T) {
	var c Counts
	if c.RequiresRebuild() {
		t.Error("empty counts should not require a rebuild")
	}
	for _, l := range []model.ImpactLevel{model.ImpactLow, model.ImpactLow, model.ImpactMedium} {
		c.Add(l)
	}
	if !c.RequiresRebuild() || c.Max() != model.ImpactMedium || c.Total() != 3 {
		t.Errorf("unexpected counts %s", c)
	}
	if c.Of(model.ImpactLow) != 2 {
		t.Errorf("Of(LOW) = %d, want 2", c.Of(model.ImpactLow))
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"added": Added, " Removed ": Removed, "MODIFIED": Modified} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("moved"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
