// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jeranaias/agentdeck/internal/account"
	"github.com/jeranaias/agentdeck/internal/config"
	"github.com/jeranaias/agentdeck/internal/directory"
	"github.com/jeranaias/agentdeck/internal/engine"
	"github.com/jeranaias/agentdeck/internal/kv"
	"github.com/jeranaias/agentdeck/internal/model"
	"github.com/jeranaias/agentdeck/internal/store"
)

// App wires the agentdeck components together for the command surfaces.
type App struct {
	Config    *config.Config
	Registry  *account.Registry
	Directory *directory.Directory
	Store     *store.ConversationStore
	Engine    *engine.Engine

	kv kv.Store
}

// NewApp loads the configuration, opens the database, and builds the
// component graph.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnvOverrides()

	for _, warning := range cfg.Validate() {
		log.Printf("config: %s", warning)
	}

	dbPath, err := kv.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate database: %w", err)
	}
	db, err := kv.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return NewAppWith(cfg, db), nil
}

// NewAppWith builds the component graph over an existing config and store.
func NewAppWith(cfg *config.Config, db kv.Store) *App {
	registry := account.NewRegistry(cfg)
	cs := store.Open(db)

	// Histories recorded before multi-account support carry no account; stamp
	// them with the primary account so they stay sendable.
	if primary, ok := registry.Lookup(account.PrimaryID); ok {
		if err := cs.BackfillAccounts(primary.ID, primary.Name); err != nil {
			log.Printf("app: account backfill failed: %v", err)
		}
	}

	return &App{
		Config:    cfg,
		Registry:  registry,
		Directory: directory.New(registry, db),
		Store:     cs,
		Engine:    engine.New(cs),
		kv:        db,
	}
}

// Close releases the database.
func (a *App) Close() {
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			log.Printf("app: closing database failed: %v", err)
		}
	}
}

// PickAgent resolves the agent to talk to: an explicit query wins, then the
// persisted active agent, then the sole configured agent if there is
// exactly one.
func (a *App) PickAgent(ctx context.Context, query string) (model.Agent, error) {
	if query != "" {
		return a.Directory.Resolve(ctx, query)
	}

	if active, ok := a.Directory.Active(ctx); ok {
		return active, nil
	}

	agents := a.Directory.ListAll(ctx, "")
	switch len(agents) {
	case 0:
		return model.Agent{}, fmt.Errorf("no agents available; check your API key in the config")
	case 1:
		return agents[0], nil
	default:
		return model.Agent{}, fmt.Errorf("multiple agents available; pick one with --agent")
	}
}
