// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"testing"

	"github.com/jeranaias/agentdeck/internal/config"
)

func TestBuildAccounts_PrimaryFirst(t *testing.T) {
	cfg := &config.Config{
		APIKey:  "primary-key",
		BaseURL: "https://self-hosted.example",
		Accounts: []config.AccountConfig{
			{Name: "Work", APIKey: "work-key"},
		},
	}

	accounts := BuildAccounts(cfg)
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].ID != PrimaryID || accounts[0].Name != PrimaryName {
		t.Errorf("First account should be primary: %+v", accounts[0])
	}
	if accounts[0].BaseURL != "https://self-hosted.example" {
		t.Errorf("Primary base URL not carried: %+v", accounts[0])
	}
	if accounts[1].ID != "work" {
		t.Errorf("Expected slug id 'work', got %q", accounts[1].ID)
	}
}

func TestBuildAccounts_NoPrimary(t *testing.T) {
	cfg := &config.Config{
		Accounts: []config.AccountConfig{
			{Name: "Work", APIKey: "work-key"},
		},
	}
	accounts := BuildAccounts(cfg)
	if len(accounts) != 1 || accounts[0].ID != "work" {
		t.Fatalf("Expected only the named account: %+v", accounts)
	}
}

func TestBuildAccounts_SkipsInvalid(t *testing.T) {
	cfg := &config.Config{
		APIKey: "primary-key",
		Accounts: []config.AccountConfig{
			{Name: "", APIKey: "orphan-key"}, // no name
			{Name: "Keyless"},                // no key
			{Name: "Valid", APIKey: "k"},
		},
	}
	accounts := BuildAccounts(cfg)
	if len(accounts) != 2 {
		t.Fatalf("Invalid entries should be skipped, got %+v", accounts)
	}
	if accounts[1].Name != "Valid" {
		t.Errorf("Expected only the valid extra account: %+v", accounts)
	}
}

func TestBuildAccounts_DuplicateNames(t *testing.T) {
	cfg := &config.Config{
		Accounts: []config.AccountConfig{
			{Name: "Work", APIKey: "k1"},
			{Name: "work", APIKey: "k2"},
		},
	}
	accounts := BuildAccounts(cfg)
	if len(accounts) != 1 {
		t.Fatalf("Duplicate ids should be skipped, got %+v", accounts)
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_ClientReuse(t *testing.T) {
	cfg := &config.Config{APIKey: "key-1"}
	reg := NewRegistry(cfg)

	c1, ok := reg.Client(PrimaryID)
	if !ok || c1 == nil {
		t.Fatal("Expected primary client")
	}
	c2, _ := reg.Client(PrimaryID)
	if c1 != c2 {
		t.Error("Repeated lookups should return the same client instance")
	}
}

func TestRegistry_KeyChangeInvalidates(t *testing.T) {
	reg := NewRegistry(&config.Config{APIKey: "key-1"})
	c1, _ := reg.Client(PrimaryID)

	reg.Reload(&config.Config{APIKey: "key-2"})
	c2, ok := reg.Client(PrimaryID)
	if !ok {
		t.Fatal("Primary should survive reload")
	}
	if c1 == c2 {
		t.Error("Changed key should yield a fresh client")
	}
}

func TestRegistry_ReloadKeepsUnchanged(t *testing.T) {
	reg := NewRegistry(&config.Config{APIKey: "key-1"})
	c1, _ := reg.Client(PrimaryID)

	reg.Reload(&config.Config{APIKey: "key-1"})
	c2, _ := reg.Client(PrimaryID)
	if c1 != c2 {
		t.Error("Unchanged key should keep the cached client")
	}
}

func TestRegistry_UnknownAccount(t *testing.T) {
	reg := NewRegistry(&config.Config{APIKey: "key-1"})
	if _, ok := reg.Client("nope"); ok {
		t.Error("Unknown account should not yield a client")
	}
	if _, ok := reg.Lookup("nope"); ok {
		t.Error("Unknown account should not resolve")
	}
}

func TestRegistry_RemovedAccountDropped(t *testing.T) {
	reg := NewRegistry(&config.Config{
		APIKey:   "key-1",
		Accounts: []config.AccountConfig{{Name: "Work", APIKey: "wk"}},
	})
	if _, ok := reg.Client("work"); !ok {
		t.Fatal("Expected work client before reload")
	}

	reg.Reload(&config.Config{APIKey: "key-1"})
	if _, ok := reg.Client("work"); ok {
		t.Error("Removed account should no longer yield a client")
	}
}
