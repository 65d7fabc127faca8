// Package config loads specgate settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/sprite-ai/specgate/internal/logger"
)

// Diff strategies accepted in diff_strategy.
const (
	StrategyContentHash = "content_hash"
	StrategyPosition    = "position"
)

// Config is the full specgate configuration.
type Config struct {
	DataDir            string        `toml:"data_dir"`
	OutputDir          string        `toml:"output_dir"`
	TaxonomyPath       string        `toml:"taxonomy_path"` // empty: embedded POCT1 taxonomy
	CustomMessagesPath string        `toml:"custom_messages_path"`
	RegistryPath       string        `toml:"registry_path"`
	DiffStrategy       string        `toml:"diff_strategy"`
	Log                logger.Config `toml:"log"`
	Server             ServerConfig  `toml:"server"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
	Port int    `toml:"port"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir:            "data",
		OutputDir:          filepath.Join("data", "spec_output"),
		CustomMessagesPath: filepath.Join("data", "custom_messages.json"),
		RegistryPath:       filepath.Join("data", "device_registry.json"),
		DiffStrategy:       StrategyContentHash,
		Server: ServerConfig{
			Addr: "127.0.0.1",
			Port: 6142,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that have a closed set of options.
func (c Config) Validate() error {
	switch c.DiffStrategy {
	case "", StrategyContentHash, StrategyPosition:
	default:
		return fmt.Errorf("invalid diff_strategy %q (want %s or %s)", c.DiffStrategy, StrategyContentHash, StrategyPosition)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

// Save writes the configuration as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
