// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPath_Missing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config should not error: %v", err)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("defaults not applied, theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFromPath_Accounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
api_key = "sk-primary"
base_url = "https://api.example.test"

[[accounts]]
name = "Work"
api_key = "sk-work"

[[accounts]]
name = "Research"
api_key = "sk-research"
base_url = "https://research.example.test"

[ui]
show_account_names = false
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.APIKey != "sk-primary" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if len(cfg.Accounts) != 2 {
		t.Fatalf("Accounts count = %d, want 2", len(cfg.Accounts))
	}
	if cfg.Accounts[1].BaseURL != "https://research.example.test" {
		t.Errorf("account base url = %q", cfg.Accounts[1].BaseURL)
	}
	if cfg.UI.ShowAccountNames {
		t.Error("show_account_names should be false")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AGENTDECK_API_KEY", "sk-env")
	t.Setenv("AGENTDECK_BASE_URL", "https://env.example.test")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "sk-env" {
		t.Errorf("APIKey = %q, want env override", cfg.APIKey)
	}
	if cfg.BaseURL != "https://env.example.test" {
		t.Errorf("BaseURL = %q, want env override", cfg.BaseURL)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.APIKey = "sk-saved"
	cfg.Accounts = []AccountConfig{{Name: "Alt", APIKey: "sk-alt"}}

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config perms = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.APIKey != "sk-saved" || len(loaded.Accounts) != 1 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Accounts = []AccountConfig{
		{Name: "", APIKey: "sk-nameless"},
		{Name: "Keyless", APIKey: ""},
	}
	cfg.UI.Theme = "neon"

	problems := cfg.Validate()
	if len(problems) != 3 {
		t.Errorf("problems = %v, want 3 entries", problems)
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	if problems := Default().Validate(); len(problems) != 0 {
		t.Errorf("empty config should be valid, got %v", problems)
	}
}
