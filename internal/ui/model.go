// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/agentdeck/internal/account"
	"github.com/jeranaias/agentdeck/internal/config"
	"github.com/jeranaias/agentdeck/internal/directory"
	"github.com/jeranaias/agentdeck/internal/engine"
	"github.com/jeranaias/agentdeck/internal/model"
	"github.com/jeranaias/agentdeck/internal/store"
)

// =============================================================================
// VIEW STATES
// =============================================================================

type viewState int

const (
	viewChat viewState = iota
	viewAgents
	viewConversations
	viewMemory
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the agentdeck interface.
type Model struct {
	cfg      *config.Config
	registry *account.Registry
	dir      *directory.Directory
	store    *store.ConversationStore
	engine   *engine.Engine

	state  viewState
	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	styles   styleSet
	renderer *glamour.TermRenderer

	agent  model.Agent
	convID string

	// streaming state
	streaming     bool
	liveAnswer    string
	liveReasoning string
	liveTools     []model.ToolCall
	progressCh    chan tea.Msg

	// picker state
	agents  []model.Agent
	cursor  int
	sums    []model.Summary
	blocks  []memoryBlockView
	loading bool

	errText string
}

// memoryBlockView is one rendered memory block.
type memoryBlockView struct {
	Label string
	Value string
}

// New builds the interface model. The initial agent may be zero; the agent
// picker opens first in that case.
func New(cfg *config.Config, registry *account.Registry, dir *directory.Directory, cs *store.ConversationStore, eng *engine.Engine, initial model.Agent) Model {
	theme := ThemeByName(cfg.UI.Theme)
	styles := newStyleSet(theme)

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 0
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	var renderer *glamour.TermRenderer
	if !cfg.UI.PlainMode {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	}

	m := Model{
		cfg:      cfg,
		registry: registry,
		dir:      dir,
		store:    cs,
		engine:   eng,
		input:    input,
		spin:     spin,
		styles:   styles,
		renderer: renderer,
		agent:    initial,
	}
	if initial.ID == "" {
		m.state = viewAgents
		m.loading = true
	}
	return m
}

// Init starts the interface: load agents when no agent is bound yet,
// otherwise open a conversation with the initial agent.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.agent.ID == "" {
		cmds = append(cmds, m.loadAgentsCmd(), m.spin.Tick)
	} else {
		cmds = append(cmds, m.openConversationCmd(m.agent))
	}
	return tea.Batch(cmds...)
}

// Run starts the full-screen interface.
func Run(cfg *config.Config, registry *account.Registry, dir *directory.Directory, cs *store.ConversationStore, eng *engine.Engine, initial model.Agent) error {
	program := tea.NewProgram(
		New(cfg, registry, dir, cs, eng, initial),
		tea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

// =============================================================================
// COMMANDS
// =============================================================================

// loadAgentsCmd fetches the aggregated agent list off the UI loop.
func (m Model) loadAgentsCmd() tea.Cmd {
	dir := m.dir
	return func() tea.Msg {
		return agentsMsg{agents: dir.ListAll(context.Background(), "")}
	}
}

// openConversationCmd starts a fresh conversation with the agent and marks
// it active.
func (m Model) openConversationCmd(target model.Agent) tea.Cmd {
	return func() tea.Msg {
		if err := m.dir.SetActive(target); err != nil {
			return sendDoneMsg{err: err}
		}
		conv, err := m.store.Start(target)
		if err != nil {
			return sendDoneMsg{err: err}
		}
		return convOpenedMsg{agent: target, convID: conv.ID}
	}
}

// convOpenedMsg binds the chat view to a conversation.
type convOpenedMsg struct {
	agent  model.Agent
	convID string
}

// sendCmd drives one exchange on a goroutine and bridges progress back.
func (m *Model) sendCmd(text string) tea.Cmd {
	sender, ok := m.dir.Streamer(m.agent)
	if !ok {
		err := fmt.Errorf("no client for account %q", m.agent.AccountName)
		return func() tea.Msg { return sendDoneMsg{err: err} }
	}

	obs := newChanObserver()
	m.progressCh = obs.ch

	eng := m.engine
	agentID, convID := m.agent.ID, m.convID
	go func() {
		// OnDone carries the result; the returned error is the same value.
		_ = eng.Send(context.Background(), sender, agentID, convID, text, obs)
	}()

	return waitForProgress(obs.ch)
}

// loadBlocksCmd fetches the current agent's memory blocks.
func (m Model) loadBlocksCmd() tea.Cmd {
	client, ok := m.registry.Client(m.agent.AccountID)
	if !ok {
		err := fmt.Errorf("no client for account %q", m.agent.AccountName)
		return func() tea.Msg { return blocksMsg{err: err} }
	}
	agentID := m.agent.ID
	return func() tea.Msg {
		blocks, err := client.ListBlocks(context.Background(), agentID)
		return blocksMsg{blocks: blocks, err: err}
	}
}
