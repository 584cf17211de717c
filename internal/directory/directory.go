// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/jeranaias/agentdeck/internal/account"
	"github.com/jeranaias/agentdeck/internal/agent"
	"github.com/jeranaias/agentdeck/internal/kv"
	"github.com/jeranaias/agentdeck/internal/model"
)

// Directory aggregates agents across accounts and persists the active
// selection.
type Directory struct {
	registry *account.Registry
	store    kv.Store
}

// New creates a directory over a registry and a persistence store.
func New(registry *account.Registry, store kv.Store) *Directory {
	return &Directory{registry: registry, store: store}
}

// =============================================================================
// AGGREGATED LISTING
// =============================================================================

// ListAll returns the agents of every configured account, sorted by account
// name then agent name, both case-insensitive. A non-empty query is passed to
// each account as a server-side name filter. Accounts that fail are logged
// and contribute nothing; one bad account never hides the rest.
func (d *Directory) ListAll(ctx context.Context, query string) []model.Agent {
	accounts := d.registry.Accounts()

	var mu sync.Mutex
	var all []model.Agent
	var wg sync.WaitGroup

	for _, ac := range accounts {
		client, ok := d.registry.Client(ac.ID)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(ac account.Account, client *agent.Client) {
			defer wg.Done()

			records, err := client.ListAgents(ctx, query)
			if err != nil {
				log.Printf("directory: listing agents for %q failed: %v", ac.Name, err)
				return
			}

			agents := make([]model.Agent, 0, len(records))
			for _, rec := range records {
				agents = append(agents, model.Agent{
					ID:          rec.ID,
					Name:        rec.Name,
					Description: rec.Description,
					AccountID:   ac.ID,
					AccountName: ac.Name,
				})
			}

			mu.Lock()
			all = append(all, agents...)
			mu.Unlock()
		}(ac, client)
	}

	wg.Wait()

	sort.Slice(all, func(i, j int) bool {
		ai, aj := strings.ToLower(all[i].AccountName), strings.ToLower(all[j].AccountName)
		if ai != aj {
			return ai < aj
		}
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all
}

// Resolve finds an agent by exact id or case-insensitive name match across
// all accounts. A query that matches nothing is an error; no substitute is
// ever returned in its place.
func (d *Directory) Resolve(ctx context.Context, query string) (model.Agent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Agent{}, fmt.Errorf("empty agent query")
	}

	// The full listing, not the server-filtered one: an id query would never
	// match a name filter.
	agents := d.ListAll(ctx, "")
	for _, a := range agents {
		if a.ID == query {
			return a, nil
		}
	}
	lower := strings.ToLower(query)
	for _, a := range agents {
		if strings.ToLower(a.Name) == lower {
			return a, nil
		}
	}
	return model.Agent{}, fmt.Errorf("no agent matching %q", query)
}

// =============================================================================
// AGENT CREATION
// =============================================================================

// Templates seed the memory blocks of a newly created agent. "blank" is the
// default.
var templates = map[string][]agent.MemoryBlock{
	"blank": nil,
	"assistant": {
		{Label: "persona", Value: "I am a helpful assistant. I answer precisely and admit uncertainty."},
		{Label: "human", Value: ""},
	},
	"companion": {
		{Label: "persona", Value: "I am a friendly conversational companion. I remember what we talk about."},
		{Label: "human", Value: ""},
	},
}

// TemplateNames returns the available creation templates, sorted.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateAgent creates an agent on the given account from a named template.
// An empty template means "blank".
func (d *Directory) CreateAgent(ctx context.Context, accountID, name, template string) (model.Agent, error) {
	if strings.TrimSpace(name) == "" {
		return model.Agent{}, fmt.Errorf("agent name required")
	}
	if template == "" {
		template = "blank"
	}
	blocks, ok := templates[template]
	if !ok {
		return model.Agent{}, fmt.Errorf("unknown template %q (available: %s)",
			template, strings.Join(TemplateNames(), ", "))
	}

	ac, ok := d.registry.Lookup(accountID)
	if !ok {
		return model.Agent{}, fmt.Errorf("unknown account %q", accountID)
	}
	client, ok := d.registry.Client(ac.ID)
	if !ok {
		return model.Agent{}, fmt.Errorf("no client for account %q", ac.Name)
	}

	record, err := client.CreateAgent(ctx, agent.CreateAgentRequest{
		Name:         name,
		MemoryBlocks: blocks,
	})
	if err != nil {
		return model.Agent{}, err
	}

	return model.Agent{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		AccountID:   ac.ID,
		AccountName: ac.Name,
	}, nil
}

// Streamer returns the send surface for an agent's account.
func (d *Directory) Streamer(a model.Agent) (agent.Streamer, bool) {
	return d.registry.Client(a.AccountID)
}

// =============================================================================
// ACTIVE AGENT
// =============================================================================

// SetActive persists the active agent selection.
func (d *Directory) SetActive(a model.Agent) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode active agent: %w", err)
	}
	return d.store.Set(kv.KeyActiveAgent, string(data))
}

// ClearActive removes the active agent selection.
func (d *Directory) ClearActive() error {
	return d.store.Delete(kv.KeyActiveAgent)
}

// Active returns the persisted active agent resolved against the current
// directory listing. A selection whose id no longer lists anywhere is
// reported as absent rather than returned stale; the fresh record is
// returned so renames show through. A corrupt record is treated as no
// selection.
func (d *Directory) Active(ctx context.Context) (model.Agent, bool) {
	raw, ok, err := d.store.Get(kv.KeyActiveAgent)
	if err != nil || !ok {
		if err != nil {
			log.Printf("directory: reading active agent failed: %v", err)
		}
		return model.Agent{}, false
	}

	var stored model.Agent
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored.ID == "" {
		return model.Agent{}, false
	}

	for _, a := range d.ListAll(ctx, "") {
		if a.ID == stored.ID {
			return a, true
		}
	}
	return model.Agent{}, false
}
