// Package export writes message inventories and comparisons as XLSX
// workbooks for review outside the terminal.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

// Sheet names.
const (
	MessagesSheet = "Messages"
	FieldsSheet   = "Fields"
	ChangesSheet  = "Changes"
)

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) write(values ...any) {
	w.row++
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
}

func (w *sheetWriter) widths(widths ...float64) {
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = w.f.SetColWidth(w.sheet, col, col, width)
	}
}

// Workbook renders inv, and d when it is not nil, and returns the XLSX bytes.
func Workbook(inv *inventory.MessageInventory, d *specdiff.SpecDiff) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("export: no inventory")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MessagesSheet); err != nil {
		return nil, err
	}
	msgs := &sheetWriter{f: f, sheet: MessagesSheet}
	msgs.write("Message ID", "Category", "Direction", "Recognized", "Malformed", "Citations")
	for _, m := range inv.Recognized {
		msgs.write(m.MessageID, string(m.Category), string(m.Direction), "yes", "no", citations(m.Citations))
	}
	for _, m := range inv.Unrecognized {
		msgs.write(m.MessageID, string(m.Category), string(m.Direction), "no", yesNo(m.Malformed), citations(m.Citations))
	}
	msgs.widths(24, 18, 10, 12, 12, 60)

	if _, err := f.NewSheet(FieldsSheet); err != nil {
		return nil, err
	}
	fields := &sheetWriter{f: f, sheet: FieldsSheet}
	fields.write("Field ID", "Name", "Data Type", "Optionality", "Cardinality", "Length", "Description", "Citation")
	for _, fs := range inv.Fields {
		fields.write(fs.FieldID, fs.Name, fs.DataType, fs.Optionality, fs.Cardinality, fs.Length, fs.Description, fs.Citation.String())
	}
	fields.widths(12, 24, 10, 12, 12, 8, 48, 48)

	if d != nil {
		if _, err := f.NewSheet(ChangesSheet); err != nil {
			return nil, err
		}
		ch := &sheetWriter{f: f, sheet: ChangesSheet}
		ch.write("Impact", "Change Type", "Reasoning", "Old Location", "New Location", "Old Content", "New Content")
		for _, c := range d.Changes {
			ch.write(c.ImpactLevel.String(), string(c.ChangeType), c.Reasoning,
				location(c.OldCitation), location(c.NewCitation), c.OldContent, c.NewContent)
		}
		ch.widths(10, 28, 60, 40, 40, 48, 48)
	}

	idx, _ := f.GetSheetIndex(MessagesSheet)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func citations(cs []model.Citation) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func location(c *model.Citation) string {
	if c == nil {
		return ""
	}
	return c.String()
}
