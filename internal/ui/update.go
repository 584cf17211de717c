// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentdeck/internal/model"
)

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.streaming || m.loading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case agentsMsg:
		m.loading = false
		m.agents = msg.agents
		if m.cursor >= len(m.agents) {
			m.cursor = 0
		}
		return m, nil

	case convOpenedMsg:
		m.agent = msg.agent
		m.convID = msg.convID
		m.state = viewChat
		m.errText = ""
		m.refreshViewport()
		return m, nil

	case progressMsg:
		m.liveAnswer = msg.answer
		m.liveReasoning = msg.reasoning
		m.liveTools = msg.toolCalls
		m.refreshViewport()
		return m, waitForProgress(m.progressCh)

	case sendDoneMsg:
		m.streaming = false
		m.liveAnswer = ""
		m.liveReasoning = ""
		m.liveTools = nil
		m.progressCh = nil
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.errText = ""
		}
		m.input.Focus()
		m.refreshViewport()
		return m, nil

	case blocksMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			m.state = viewChat
			return m, nil
		}
		m.blocks = make([]memoryBlockView, len(msg.blocks))
		for i, b := range msg.blocks {
			m.blocks[i] = memoryBlockView{Label: b.Label, Value: b.Value}
		}
		return m, nil
	}

	return m.updateChildren(msg)
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	footerHeight := 4
	vpHeight := msg.Height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 6
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global bindings
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.state {
	case viewChat:
		return m.handleChatKey(msg)
	case viewAgents:
		return m.handleAgentsKey(msg)
	case viewConversations:
		return m.handleConversationsKey(msg)
	case viewMemory:
		return m.handleMemoryKey(msg)
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.streaming {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.input.Blur()
		m.streaming = true
		m.errText = ""
		cmd := m.sendCmd(text)
		return m, tea.Batch(cmd, m.spin.Tick)

	case "ctrl+a":
		m.state = viewAgents
		m.cursor = 0
		m.loading = true
		return m, tea.Batch(m.loadAgentsCmd(), m.spin.Tick)

	case "ctrl+l":
		m.state = viewConversations
		m.cursor = 0
		m.sums = m.store.Summaries("")
		return m, nil

	case "ctrl+b":
		if m.agent.ID == "" {
			return m, nil
		}
		m.state = viewMemory
		m.loading = true
		m.blocks = nil
		return m, tea.Batch(m.loadBlocksCmd(), m.spin.Tick)

	case "ctrl+n":
		if m.agent.ID == "" || m.streaming {
			return m, nil
		}
		return m, m.openConversationCmd(m.agent)

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if !m.streaming {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAgentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.agent.ID != "" {
			m.state = viewChat
		}
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.agents)-1 {
			m.cursor++
		}
		return m, nil
	case "r":
		m.loading = true
		return m, tea.Batch(m.loadAgentsCmd(), m.spin.Tick)
	case "enter":
		if m.cursor < len(m.agents) {
			return m, m.openConversationCmd(m.agents[m.cursor])
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleConversationsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = viewChat
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.sums)-1 {
			m.cursor++
		}
		return m, nil
	case "d":
		if m.cursor < len(m.sums) {
			if err := m.store.Delete(m.sums[m.cursor].ID); err != nil {
				m.errText = err.Error()
			}
			m.sums = m.store.Summaries("")
			if m.cursor >= len(m.sums) && m.cursor > 0 {
				m.cursor--
			}
		}
		return m, nil
	case "enter":
		if m.cursor < len(m.sums) {
			conv, ok := m.store.Get(m.sums[m.cursor].ID)
			if ok {
				if err := m.store.SetActiveConversation(conv.ID); err != nil {
					m.errText = err.Error()
				}
				m.convID = conv.ID
				m.agent = model.Agent{
					ID:          conv.AgentID,
					Name:        conv.AgentName,
					AccountID:   conv.AccountID,
					AccountName: conv.AccountName,
				}
				m.state = viewChat
				m.refreshViewport()
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleMemoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.state = viewChat
		return m, nil
	}
	return m, nil
}

// updateChildren forwards unhandled messages to the focused child widgets.
func (m Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.state == viewChat && !m.streaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}
