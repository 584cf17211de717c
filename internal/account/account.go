// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"log"
	"strings"
	"sync"

	"github.com/jeranaias/agentdeck/internal/agent"
	"github.com/jeranaias/agentdeck/internal/config"
)

// PrimaryID is the stable identifier of the primary account.
const PrimaryID = "primary"

// PrimaryName is the display label of the primary account.
const PrimaryName = "Primary"

// Account is one configured service account.
type Account struct {
	ID      string
	Name    string
	APIKey  string
	BaseURL string
}

// =============================================================================
// ACCOUNT CONSTRUCTION
// =============================================================================

// BuildAccounts derives the account list from a config. The primary account
// (top-level API key) is always first and needs no explicit name. Extra
// accounts must carry both a name and a key; entries missing either are
// skipped with a log line rather than failing the whole list.
func BuildAccounts(cfg *config.Config) []Account {
	var accounts []Account

	if strings.TrimSpace(cfg.APIKey) != "" {
		accounts = append(accounts, Account{
			ID:      PrimaryID,
			Name:    PrimaryName,
			APIKey:  strings.TrimSpace(cfg.APIKey),
			BaseURL: cfg.BaseURL,
		})
	}

	seen := map[string]bool{PrimaryID: true}
	for i, ac := range cfg.Accounts {
		name := strings.TrimSpace(ac.Name)
		key := strings.TrimSpace(ac.APIKey)
		if name == "" {
			log.Printf("account: skipping accounts[%d]: missing name", i)
			continue
		}
		if key == "" {
			log.Printf("account: skipping account %q: missing api_key", name)
			continue
		}

		id := slugify(name)
		if seen[id] {
			log.Printf("account: skipping account %q: duplicate id %q", name, id)
			continue
		}
		seen[id] = true

		accounts = append(accounts, Account{
			ID:      id,
			Name:    name,
			APIKey:  key,
			BaseURL: ac.BaseURL,
		})
	}

	return accounts
}

// slugify turns a display name into a stable lowercase identifier.
func slugify(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds the configured accounts and caches one client per account.
// Clients are reused across lookups so connection pools and rate limiters
// persist; a changed API key invalidates the cached client.
type Registry struct {
	mu       sync.RWMutex
	accounts []Account
	clients  map[string]*agent.Client
	keys     map[string]string // account id -> key the cached client was built with
}

// NewRegistry builds a registry from a config.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		clients: make(map[string]*agent.Client),
		keys:    make(map[string]string),
	}
	r.Reload(cfg)
	return r
}

// Reload replaces the account list from a config. Cached clients survive for
// accounts whose key is unchanged.
func (r *Registry) Reload(cfg *config.Config) {
	accounts := BuildAccounts(cfg)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = accounts

	live := make(map[string]bool, len(accounts))
	for _, ac := range accounts {
		live[ac.ID] = true
		if r.keys[ac.ID] != ac.APIKey {
			delete(r.clients, ac.ID)
			delete(r.keys, ac.ID)
		}
	}
	for id := range r.clients {
		if !live[id] {
			delete(r.clients, id)
			delete(r.keys, id)
		}
	}
}

// Accounts returns the configured accounts, primary first.
func (r *Registry) Accounts() []Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// Lookup returns the account with the given id.
func (r *Registry) Lookup(id string) (Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ac := range r.accounts {
		if ac.ID == id {
			return ac, true
		}
	}
	return Account{}, false
}

// Primary returns the primary account if one is configured.
func (r *Registry) Primary() (Account, bool) {
	return r.Lookup(PrimaryID)
}

// Client returns the cached client for an account, building one on first
// use. The second return is false when the account does not exist.
func (r *Registry) Client(accountID string) (*agent.Client, bool) {
	r.mu.RLock()
	if c, ok := r.clients[accountID]; ok {
		r.mu.RUnlock()
		return c, true
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[accountID]; ok {
		return c, true
	}

	var found *Account
	for i := range r.accounts {
		if r.accounts[i].ID == accountID {
			found = &r.accounts[i]
			break
		}
	}
	if found == nil {
		return nil, false
	}

	c := agent.NewClient(found.APIKey)
	if found.BaseURL != "" {
		c = c.WithBaseURL(found.BaseURL)
	}
	r.clients[accountID] = c
	r.keys[accountID] = found.APIKey
	log.Printf("account: built client for %q (key %s)", found.Name, c.KeyFingerprint())
	return c, true
}
