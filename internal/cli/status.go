// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Informational commands: agents listing and config status.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/agentdeck/internal/config"
)

// RunAgents lists every agent across all configured accounts.
func RunAgents(ctx context.Context, app *App) error {
	agents := app.Directory.ListAll(ctx, "")
	if len(agents) == 0 {
		fmt.Println(infoStyle.Render("No agents found. Check your API keys in the config."))
		return nil
	}

	active, hasActive := app.Directory.Active(ctx)

	lastAccount := ""
	for _, a := range agents {
		if a.AccountName != lastAccount {
			fmt.Println(headerStyle.Render(a.AccountName))
			lastAccount = a.AccountName
		}
		marker := "  "
		if hasActive && a.ID == active.ID {
			marker = commandStyle.Render("* ")
		}
		line := marker + agentStyle(a).Render(a.Name) + infoStyle.Render("  "+a.ID)
		if a.Description != "" {
			line += "\n    " + infoStyle.Render(a.Description)
		}
		fmt.Println(line)
	}
	return nil
}

// RunConfig prints the config location, the configured accounts, and any
// validation warnings. API keys are shown as fingerprints only.
func RunConfig(app *App) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		// First run: write the default skeleton so there is a file to edit.
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("failed to write default config: %w", err)
		}
		fmt.Println(infoStyle.Render("Wrote default config to " + path))
	}

	fmt.Printf("%s %s\n", infoStyle.Render("Config:"), path)

	accounts := app.Registry.Accounts()
	if len(accounts) == 0 {
		fmt.Println(warningStyle.Render("No accounts configured. Set api_key in the config or AGENTDECK_API_KEY."))
	}
	for _, ac := range accounts {
		client, _ := app.Registry.Client(ac.ID)
		fingerprint := "none"
		if client != nil {
			fingerprint = client.KeyFingerprint()
		}
		fmt.Printf("%s %s %s\n",
			infoStyle.Render("Account:"),
			commandStyle.Render(ac.Name),
			infoStyle.Render(fmt.Sprintf("(key %s, %s)", fingerprint, displayBaseURL(ac.BaseURL))))
	}

	for _, warning := range app.Config.Validate() {
		fmt.Println(warningStyle.Render("Warning: " + warning))
	}
	return nil
}

func displayBaseURL(u string) string {
	if u == "" {
		return "default endpoint"
	}
	return u
}
