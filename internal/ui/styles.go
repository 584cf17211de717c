// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentdeck/internal/model"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the color set for the interface.
type Theme struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	UserLabel lipgloss.Color
}

// DarkTheme is the default theme.
var DarkTheme = Theme{
	Primary:   lipgloss.Color("#E5E7EB"),
	Secondary: lipgloss.Color("#9CA3AF"),
	Muted:     lipgloss.Color("#6B7280"),
	Accent:    lipgloss.Color("#06B6D4"),
	Warning:   lipgloss.Color("#F59E0B"),
	Error:     lipgloss.Color("#F43F5E"),
	Border:    lipgloss.Color("#374151"),
	UserLabel: lipgloss.Color("#06B6D4"),
}

// LightTheme is selected with ui.theme = "light".
var LightTheme = Theme{
	Primary:   lipgloss.Color("#1F2937"),
	Secondary: lipgloss.Color("#4B5563"),
	Muted:     lipgloss.Color("#9CA3AF"),
	Accent:    lipgloss.Color("#0891B2"),
	Warning:   lipgloss.Color("#B45309"),
	Error:     lipgloss.Color("#BE123C"),
	Border:    lipgloss.Color("#D1D5DB"),
	UserLabel: lipgloss.Color("#0891B2"),
}

// ThemeByName returns the theme for the configured name.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme
	}
	return DarkTheme
}

// =============================================================================
// STYLE SET
// =============================================================================

// styleSet is the derived lipgloss styles for one theme.
type styleSet struct {
	header    lipgloss.Style
	headerSub lipgloss.Style
	userLabel lipgloss.Style
	reasoning lipgloss.Style
	toolLine  lipgloss.Style
	errLine   lipgloss.Style
	statusBar lipgloss.Style
	hint      lipgloss.Style
	cursor    lipgloss.Style
	listItem  lipgloss.Style
	listMeta  lipgloss.Style
	inputBox  lipgloss.Style
}

func newStyleSet(t Theme) styleSet {
	return styleSet{
		header:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		headerSub: lipgloss.NewStyle().Foreground(t.Secondary),
		userLabel: lipgloss.NewStyle().Foreground(t.UserLabel).Bold(true),
		reasoning: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		toolLine:  lipgloss.NewStyle().Foreground(t.Warning),
		errLine:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		statusBar: lipgloss.NewStyle().Foreground(t.Secondary),
		hint:      lipgloss.NewStyle().Foreground(t.Muted),
		cursor:    lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		listItem:  lipgloss.NewStyle().Foreground(t.Primary),
		listMeta:  lipgloss.NewStyle().Foreground(t.Muted),
		inputBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
	}
}

// agentLabel renders an agent name in its stable per-agent color.
func agentLabel(agentID, name string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(model.ColorFor(agentID))).
		Bold(true).
		Render(name)
}
