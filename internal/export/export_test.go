package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/specdiff"
)

func sampleInventory() *inventory.MessageInventory {
	return &inventory.MessageInventory{
		Recognized: []inventory.MessageType{
			{MessageID: "OBS.R01", Category: model.CategoryObservation, Direction: model.DirectionToHost,
				Citations: []model.Citation{{CitationID: "p1_b1", Page: 1}}},
		},
		Unrecognized: []inventory.MessageType{
			{MessageID: "XYZ.R99", Category: model.CategoryUnrecognized, Direction: model.DirectionToHost},
		},
		Fields: []inventory.FieldSpec{
			{FieldID: "MSH-9", DataType: "ST", Optionality: "R"},
		},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWorkbookInventoryOnly(t *testing.T) {
	data, err := Workbook(sampleInventory(), nil)
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{MessagesSheet, FieldsSheet}, f.GetSheetList())

	rows, err := f.GetRows(MessagesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Message ID", rows[0][0])
	assert.Equal(t, []string{"OBS.R01", "observation", "→Host", "yes", "no", "Page 1, Citation p1_b1, BBox(0, 0, 0, 0)"}, rows[1])
	assert.Equal(t, "XYZ.R99", rows[2][0])
	assert.Equal(t, "no", rows[2][3])

	rows, err = f.GetRows(FieldsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MSH-9", rows[1][0])
	assert.Equal(t, "ST", rows[1][2])
}

func TestWorkbookWithChanges(t *testing.T) {
	old := model.Citation{CitationID: "p1_b1", Page: 1}
	d := &specdiff.SpecDiff{Changes: []specdiff.BlockChange{{
		ImpactLevel: model.ImpactHigh,
		ChangeType:  model.ChangeMessageRemoved,
		Reasoning:   "Message type removed - breaks existing parsers expecting this message",
		OldContent:  "Message OBS.R01 definition",
		OldCitation: &old,
	}}}

	data, err := Workbook(sampleInventory(), d)
	require.NoError(t, err)

	f := open(t, data)
	assert.Contains(t, f.GetSheetList(), ChangesSheet)
	rows, err := f.GetRows(ChangesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "HIGH", rows[1][0])
	assert.Equal(t, "MESSAGE_REMOVED", rows[1][1])
	assert.Equal(t, "Page 1, Citation p1_b1, BBox(0, 0, 0, 0)", rows[1][3])
	assert.Equal(t, "", rows[1][4])
	assert.Equal(t, "Message OBS.R01 definition", rows[1][5])
}

func TestWorkbookNeedsInventory(t *testing.T) {
	_, err := Workbook(nil, nil)
	assert.Error(t, err)
}
