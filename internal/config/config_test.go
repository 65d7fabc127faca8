package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specgate.toml")
	content := `
output_dir = "/srv/specs"
diff_strategy = "position"

[log]
level = "debug"

[server]
port = 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/specs", cfg.OutputDir)
	assert.Equal(t, StrategyPosition, cfg.DiffStrategy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Addr, "unset keys keep defaults")
	assert.Equal(t, filepath.Join("data", "custom_messages.json"), cfg.CustomMessagesPath)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "specgate.toml")
	require.NoError(t, os.WriteFile(path, []byte(`diff_strategy = "fuzzy"`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "specgate.toml")
	cfg := Default()
	cfg.TaxonomyPath = "taxonomy.yaml"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "taxonomy.yaml", loaded.TaxonomyPath)
}
