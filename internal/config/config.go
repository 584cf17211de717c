// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/agentdeck/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agentdeck configuration.
type Config struct {
	// Primary account. APIKey may be empty, in which case agentdeck starts
	// with no usable account and degrades to empty listings.
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`

	// Additional accounts beyond the primary one.
	Accounts []AccountConfig `toml:"accounts"`

	// UI preferences.
	UI UIConfig `toml:"ui"`
}

// AccountConfig declares one extra backend account. An account is usable
// only when both Name and APIKey are present.
type AccountConfig struct {
	Name    string `toml:"name"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// UIConfig contains display preferences.
type UIConfig struct {
	// ShowAccountNames prefixes agent names with their account label in lists.
	ShowAccountNames bool `toml:"show_account_names"`
	// Theme is the UI theme: "dark", "light", "auto".
	Theme string `toml:"theme"`
	// PlainMode skips the full-screen TUI and uses the line-based REPL.
	PlainMode bool `toml:"plain_mode"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		BaseURL: "",
		UI: UIConfig{
			ShowAccountNames: true,
			Theme:            "dark",
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the agentdeck configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".agentdeck"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration file, merging it over defaults and applying
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides for the primary
// account.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("AGENTDECK_API_KEY"); v != "" {
		c.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("AGENTDECK_BASE_URL"); v != "" {
		c.BaseURL = strings.TrimSpace(v)
	}
}

// Save writes the configuration to its default location. The file may carry
// API keys, so it is written 0600 and atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit file path.
func SaveToPath(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports configuration problems that would make accounts unusable.
// An entirely empty configuration is valid; agentdeck degrades to empty
// listings rather than refusing to start.
func (c *Config) Validate() []string {
	var problems []string
	for i, acct := range c.Accounts {
		if acct.Name == "" && acct.APIKey != "" {
			problems = append(problems, fmt.Sprintf("accounts[%d]: name required", i))
		}
		if acct.Name != "" && acct.APIKey == "" {
			problems = append(problems, fmt.Sprintf("accounts[%d] (%s): api_key required", i, acct.Name))
		}
	}
	switch c.UI.Theme {
	case "", "dark", "light", "auto":
	default:
		problems = append(problems, fmt.Sprintf("ui.theme: unknown theme %q", c.UI.Theme))
	}
	return problems
}
