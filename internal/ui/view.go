// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/jeranaias/agentdeck/internal/model"
	"github.com/jeranaias/agentdeck/internal/util"
)

// View renders the interface.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.state {
	case viewAgents:
		return m.viewAgentPicker()
	case viewConversations:
		return m.viewConversationList()
	case viewMemory:
		return m.viewMemoryBlocks()
	default:
		return m.viewChatScreen()
	}
}

// =============================================================================
// CHAT VIEW
// =============================================================================

func (m Model) viewChatScreen() string {
	var b strings.Builder

	// Header
	title := "agentdeck"
	if m.agent.ID != "" {
		title = agentLabel(m.agent.ID, m.agent.Name)
		if m.cfg.UI.ShowAccountNames && m.agent.AccountName != "" {
			title += m.styles.headerSub.Render(" @ " + m.agent.AccountName)
		}
	}
	b.WriteString(m.styles.header.Render("agentdeck") + "  " + title + "\n")
	b.WriteString(m.styles.hint.Render(strings.Repeat("─", max(1, m.width))) + "\n")

	b.WriteString(m.viewport.View() + "\n")

	// Input or streaming indicator
	if m.streaming {
		b.WriteString(m.styles.inputBox.Width(max(10, m.width-2)).Render(
			m.spin.View() + " " + m.styles.hint.Render("waiting for response...")))
	} else {
		b.WriteString(m.styles.inputBox.Width(max(10, m.width-2)).Render(m.input.View()))
	}
	b.WriteString("\n")

	// Status line
	if m.errText != "" {
		b.WriteString(m.styles.errLine.Render("error: " + util.TruncateRunes(m.errText, 120)))
	} else {
		b.WriteString(m.styles.hint.Render("enter send • ^A agents • ^L conversations • ^B memory • ^N new • ^C quit"))
	}
	return b.String()
}

// refreshViewport re-renders the transcript into the viewport and follows
// the tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders the bound conversation plus any in-flight state.
func (m *Model) renderTranscript() string {
	if m.convID == "" {
		return m.styles.hint.Render("No conversation. Press ^A to pick an agent.")
	}
	conv, ok := m.store.Get(m.convID)
	if !ok {
		return m.styles.hint.Render("Conversation not found.")
	}

	var b strings.Builder
	for i, msg := range conv.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		live := m.streaming && i == len(conv.Messages)-1 && msg.Role == model.RoleAssistant
		b.WriteString(m.renderMessage(conv, msg, live))
	}

	if b.Len() == 0 {
		return m.styles.hint.Render("Say hello to " + conv.AgentName + ".")
	}
	return b.String()
}

func (m *Model) renderMessage(conv *model.Conversation, msg *model.Message, live bool) string {
	var b strings.Builder

	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.styles.userLabel.Render("You") + "\n")
		b.WriteString(msg.Content + "\n")

	case model.RoleAssistant:
		b.WriteString(agentLabel(conv.AgentID, conv.AgentName) + "\n")

		reasoning := msg.Reasoning
		content := msg.Content
		tools := msg.ToolCalls
		if live {
			reasoning = m.liveReasoning
			content = m.liveAnswer
			tools = m.liveTools
		}

		if reasoning != "" {
			for _, line := range strings.Split(reasoning, "\n") {
				b.WriteString(m.styles.reasoning.Render("▎ "+line) + "\n")
			}
		}
		for _, call := range tools {
			b.WriteString(m.styles.toolLine.Render("→ "+call.Name) + "\n")
		}

		if content != "" {
			b.WriteString(m.renderAnswer(content, live))
		} else if live {
			b.WriteString(m.spin.View() + "\n")
		}
	}
	return b.String()
}

// renderAnswer renders assistant text. Markdown rendering only happens on
// settled messages; in-flight text would flicker through half-parsed
// fences, so it gets fence highlighting only.
func (m *Model) renderAnswer(content string, live bool) string {
	if live || m.renderer == nil {
		return highlightFences(content) + "\n"
	}
	if out, err := m.renderer.Render(content); err == nil {
		return strings.TrimLeft(out, "\n")
	}
	return content + "\n"
}

// =============================================================================
// AGENT PICKER
// =============================================================================

func (m Model) viewAgentPicker() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render("Agents") + "\n")
	b.WriteString(m.styles.hint.Render(strings.Repeat("─", max(1, m.width))) + "\n\n")

	if m.loading {
		b.WriteString("  " + m.spin.View() + " " + m.styles.hint.Render("loading agents...") + "\n")
	} else if len(m.agents) == 0 {
		b.WriteString(m.styles.hint.Render("  No agents found. Check your API keys in the config.") + "\n")
	} else {
		lastAccount := ""
		for i, a := range m.agents {
			if a.AccountName != lastAccount {
				b.WriteString(m.styles.headerSub.Render("  "+a.AccountName) + "\n")
				lastAccount = a.AccountName
			}
			cursor := "   "
			if i == m.cursor {
				cursor = m.styles.cursor.Render(" ❯ ")
			}
			line := cursor + agentLabel(a.ID, a.Name)
			if a.Description != "" {
				line += "  " + m.styles.listMeta.Render(util.TruncateRunes(a.Description, 60))
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n" + m.styles.hint.Render("↑↓ move • enter select • r refresh • esc back"))
	return b.String()
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

func (m Model) viewConversationList() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render("Conversations") + "\n")
	b.WriteString(m.styles.hint.Render(strings.Repeat("─", max(1, m.width))) + "\n\n")

	if len(m.sums) == 0 {
		b.WriteString(m.styles.hint.Render("  No conversations yet.") + "\n")
	}
	for i, sum := range m.sums {
		cursor := "   "
		if i == m.cursor {
			cursor = m.styles.cursor.Render(" ❯ ")
		}
		meta := fmt.Sprintf("(%s, %d messages)", sum.AgentName, sum.MessageCount)
		title := util.PadRight(util.TruncateWidth(sum.Title, 52), 52)
		b.WriteString(cursor + m.styles.listItem.Render(title) + "  " + m.styles.listMeta.Render(meta) + "\n")
		if sum.Preview != "" {
			preview := util.TruncateWidth(sum.Preview, max(20, m.width-8))
			b.WriteString("     " + m.styles.listMeta.Render(preview) + "\n")
		}
	}

	b.WriteString("\n" + m.styles.hint.Render("↑↓ move • enter open • d delete • esc back"))
	return b.String()
}

// =============================================================================
// MEMORY VIEW
// =============================================================================

func (m Model) viewMemoryBlocks() string {
	var b strings.Builder
	b.WriteString(m.styles.header.Render("Memory") + "  " + agentLabel(m.agent.ID, m.agent.Name) + "\n")
	b.WriteString(m.styles.hint.Render(strings.Repeat("─", max(1, m.width))) + "\n\n")

	if m.loading {
		b.WriteString("  " + m.spin.View() + " " + m.styles.hint.Render("loading memory blocks...") + "\n")
	} else if len(m.blocks) == 0 {
		b.WriteString(m.styles.hint.Render("  No memory blocks.") + "\n")
	}
	for _, block := range m.blocks {
		b.WriteString(m.styles.headerSub.Render("  "+block.Label) + "\n")
		for _, line := range strings.Split(block.Value, "\n") {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.hint.Render("esc back"))
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
