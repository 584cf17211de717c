// agentdeck - A terminal client for remote stateful agents.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/agentdeck/internal/cli"
	"github.com/jeranaias/agentdeck/internal/config"
	"github.com/jeranaias/agentdeck/internal/model"
	"github.com/jeranaias/agentdeck/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := cli.NewApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if args.Plain {
		app.Config.UI.PlainMode = true
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, app, args)
	case cli.CmdAsk:
		err = cli.RunAsk(ctx, app, args.Agent, args.Question, args.Plain, args.Reasoning)
	case cli.CmdChat:
		err = cli.RunChat(ctx, app, args.Agent)
	case cli.CmdAgents:
		err = cli.RunAgents(ctx, app)
	case cli.CmdConfig:
		err = cli.RunConfig(app)
	default:
		err = runTUI(ctx, app, args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the full-screen interface. The agent picker opens first
// unless an agent was named on the command line or selected previously.
func runTUI(ctx context.Context, app *cli.App, args cli.Args) error {
	if app.Config.UI.PlainMode {
		return cli.RunChat(ctx, app, args.Agent)
	}

	var initial model.Agent
	if args.Agent != "" {
		agent, err := app.Directory.Resolve(ctx, args.Agent)
		if err != nil {
			return err
		}
		initial = agent
	} else if active, ok := app.Directory.Active(ctx); ok {
		initial = active
	}

	stopWatch := watchConfig(ctx, app)
	defer stopWatch()

	return ui.Run(app.Config, app.Registry, app.Directory, app.Store, app.Engine, initial)
}

// watchConfig reloads the account registry when the config file changes on
// disk. Watch failures are logged and otherwise ignored.
func watchConfig(ctx context.Context, app *cli.App) func() {
	path, err := config.Path()
	if err != nil {
		return func() {}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	changes, err := config.Watch(watchCtx, path)
	if err != nil {
		log.Printf("config watch unavailable: %v", err)
		cancel()
		return func() {}
	}

	go func() {
		for range changes {
			cfg, err := config.Load()
			if err != nil {
				log.Printf("config reload failed: %v", err)
				continue
			}
			cfg.ApplyEnvOverrides()
			app.Registry.Reload(cfg)
		}
	}()

	return cancel
}
