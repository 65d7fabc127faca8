package registry

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/specgate/internal/impact"
	"github.com/sprite-ai/specgate/internal/inventory"
	"github.com/sprite-ai/specgate/internal/model"
)

func open(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device_registry.json")
	r, err := Open(path)
	require.NoError(t, err)
	return r, path
}

func TestRegisterAndReload(t *testing.T) {
	r, path := open(t)

	id, err := r.Register("Roche", "CobasLiat", "Roche cobas Liat", Version{
		Version:          "1.0",
		PDFHash:          "abc",
		IsBaseline:       true,
		RebuildPerformed: true,
		MessageSummary:   inventory.Summary{Observation: 2, Fields: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "Roche_CobasLiat", id)

	reloaded, err := Open(path)
	require.NoError(t, err)
	d, ok := reloaded.Device(id)
	require.True(t, ok)
	assert.Equal(t, "1.0", d.CurrentVersion)
	require.Len(t, d.SpecHistory, 1)

	v := d.SpecHistory[0]
	_, err = uuid.Parse(v.ID)
	assert.NoError(t, err)
	assert.False(t, v.Timestamp.IsZero())
	assert.Equal(t, 2, v.MessageSummary.Observation)
	assert.NotNil(t, v.UnrecognizedMessages)
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := open(t)
	_, err := r.Register("Roche", "CobasLiat", "", Version{Version: "1.0"})
	require.NoError(t, err)

	_, err = r.Register("Roche", "CobasLiat", "", Version{Version: "2.0"})
	assert.True(t, errors.Is(err, ErrDeviceExists))
}

func TestAddVersion(t *testing.T) {
	r, path := open(t)
	id, err := r.Register("Abbott", "IStat", "", Version{Version: "1.0"})
	require.NoError(t, err)

	require.NoError(t, r.AddVersion(id, Version{
		Version:          "1.1",
		RebuildPerformed: true,
		ApprovalReason:   "new firmware",
		ImpactCounts:     impact.Counts{High: 2},
	}))

	err = r.AddVersion(id, Version{Version: "1.1"})
	assert.True(t, errors.Is(err, ErrVersionExists))

	err = r.AddVersion("Nope_Device", Version{Version: "1.0"})
	assert.True(t, errors.Is(err, ErrDeviceNotFound))

	latest, ok := r.Latest(id)
	require.True(t, ok)
	assert.Equal(t, "1.1", latest.Version)
	assert.Equal(t, 2, latest.ImpactCounts.High)

	hist := r.History(id)
	require.Len(t, hist, 2)
	assert.Equal(t, "1.0", hist[0].Version)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "1.1", raw[id]["current_version"])
}

func TestListSorted(t *testing.T) {
	r, _ := open(t)
	for _, m := range []string{"Zeta", "Alpha", "Mid"} {
		_, err := r.Register("V", m, "", Version{Version: "1"})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"V_Alpha", "V_Mid", "V_Zeta"}, r.List())
	assert.True(t, r.Exists("V_Mid"))
	assert.Nil(t, r.History("V_None"))
}

func TestDeviceReturnsCopy(t *testing.T) {
	r, _ := open(t)
	id, err := r.Register("V", "M", "", Version{Version: "1"})
	require.NoError(t, err)

	d, _ := r.Device(id)
	d.SpecHistory[0].Version = "changed"

	again, _ := r.Device(id)
	assert.Equal(t, "1", again.SpecHistory[0].Version)
}

func TestOpenMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_registry.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestUnrecognized(t *testing.T) {
	inv := &inventory.MessageInventory{Unrecognized: []inventory.MessageType{
		{MessageID: "XYZ.R99", Direction: model.DirectionToHost, Citations: []model.Citation{{Page: 2}}},
	}}
	got := Unrecognized(inv)
	require.Len(t, got, 1)
	assert.Equal(t, "XYZ.R99", got[0].MessageID)
	assert.Equal(t, 2, got[0].Citations[0].Page)
	assert.NotNil(t, Unrecognized(nil))
}

func TestTimestampKeptWhenSet(t *testing.T) {
	r, _ := open(t)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := r.Register("V", "M", "", Version{Version: "1", Timestamp: ts, ID: "fixed"})
	require.NoError(t, err)
	v, _ := r.Latest(id)
	assert.Equal(t, ts, v.Timestamp)
	assert.Equal(t, "fixed", v.ID)
}
