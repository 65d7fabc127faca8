package impact

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/specgate/internal/document"
	"github.com/sprite-ai/specgate/internal/model"
)

var additionRules = []rule{
	func(c change) (Impact, bool) {
		if !ContainsMessageType(c.new) {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactHigh,
			ChangeType: model.ChangeMessageAdded,
			Reasoning:  "New message type added - requires parser updates and full rebuild",
			NewValue:   MessageTypes(c.new),
		}, true
	},
	func(c change) (Impact, bool) {
		if !c.isTable() || !ContainsFieldDefinition(c.new) {
			return Impact{}, false
		}
		if IsRequiredField(c.new) {
			return Impact{
				Level:      model.ImpactHigh,
				ChangeType: model.ChangeFieldAdded,
				Reasoning:  "Required field added - breaks existing messages without this field",
				NewValue:   FieldInfo(c.new),
			}, true
		}
		return Impact{
			Level:      model.ImpactMedium,
			ChangeType: model.ChangeFieldAdded,
			Reasoning:  "Optional field added - may require parser updates",
			NewValue:   FieldInfo(c.new),
		}, true
	},
	func(c change) (Impact, bool) {
		if !ContainsVendorExtension(c.new) {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactMedium,
			ChangeType: model.ChangeVendorExtensionModified,
			Reasoning:  "Vendor-specific extension added - device-specific logic may need updates",
			NewValue:   document.Truncate(c.new, 100),
		}, true
	},
	func(c change) (Impact, bool) {
		return Impact{
			Level:      model.ImpactLow,
			ChangeType: model.ChangeBlockAdded,
			Reasoning:  "New content added - documentation or examples, no functional impact",
			NewValue:   document.Truncate(c.new, 100),
		}, true
	},
}

// Removing any field definition is breaking, optional or not: consumers that
// map the field lose it.
var removalRules = []rule{
	func(c change) (Impact, bool) {
		if !ContainsMessageType(c.old) {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactHigh,
			ChangeType: model.ChangeMessageRemoved,
			Reasoning:  "Message type removed - breaks existing parsers expecting this message",
			OldValue:   MessageTypes(c.old),
		}, true
	},
	func(c change) (Impact, bool) {
		if !c.isTable() || !ContainsFieldDefinition(c.old) {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactHigh,
			ChangeType: model.ChangeBlockRemoved,
			Reasoning:  "Field definition removed - breaks field mapping and validation",
			OldValue:   FieldInfo(c.old),
		}, true
	},
	func(c change) (Impact, bool) {
		return Impact{
			Level:      model.ImpactLow,
			ChangeType: model.ChangeBlockRemoved,
			Reasoning:  "Content removed - likely documentation cleanup, no functional impact",
			OldValue:   document.Truncate(c.old, 100),
		}, true
	},
}

// attributeChecks compare one extracted field attribute across versions.
// A change is reported only when both versions carry the attribute.
var attributeChecks = []struct {
	extract    func(string) string
	changeType model.ChangeType
	reasoning  string
}{
	{FieldName, model.ChangeFieldRenamed, "Field name changed - breaks field mapping (%s → %s)"},
	{DataType, model.ChangeFieldTypeChanged, "Field type changed - breaks data validation (%s → %s)"},
	{Optionality, model.ChangeCardinalityChanged, "Field requirement changed - breaks validation logic (%s → %s)"},
}

var modificationRules = []rule{
	func(c change) (Impact, bool) {
		for _, ac := range attributeChecks {
			o, n := ac.extract(c.old), ac.extract(c.new)
			if o != "" && n != "" && o != n {
				return Impact{
					Level:      model.ImpactHigh,
					ChangeType: ac.changeType,
					Reasoning:  fmt.Sprintf(ac.reasoning, o, n),
					OldValue:   o,
					NewValue:   n,
				}, true
			}
		}
		return Impact{}, false
	},
	func(c change) (Impact, bool) {
		if strings.TrimSpace(c.old) != strings.TrimSpace(c.new) {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactLow,
			ChangeType: model.ChangeWhitespaceChanged,
			Reasoning:  "Whitespace or formatting change only - no functional impact",
		}, true
	},
	func(c change) (Impact, bool) {
		if strings.ToLower(c.old) != strings.ToLower(c.new) {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactLow,
			ChangeType: model.ChangeTypoFixed,
			Reasoning:  "Capitalization change only - likely typo correction",
			OldValue:   document.Truncate(c.old, 50),
			NewValue:   document.Truncate(c.new, 50),
		}, true
	},
	func(c change) (Impact, bool) {
		if !c.isTable() {
			return Impact{}, false
		}
		return Impact{
			Level:      model.ImpactMedium,
			ChangeType: model.ChangeTableStructureChanged,
			Reasoning:  "Table content modified - may affect field extraction or validation",
			OldValue:   document.Truncate(c.old, 100),
			NewValue:   document.Truncate(c.new, 100),
		}, true
	},
	func(c change) (Impact, bool) {
		return Impact{
			Level:      model.ImpactLow,
			ChangeType: model.ChangeDocumentationUpdated,
			Reasoning:  "Content updated - likely documentation improvement, no structural changes detected",
			OldValue:   document.Truncate(c.old, 100),
			NewValue:   document.Truncate(c.new, 100),
		}, true
	},
}
