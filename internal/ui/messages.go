// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentdeck/internal/agent"
	"github.com/jeranaias/agentdeck/internal/model"
)

// =============================================================================
// MESSAGES
// =============================================================================

// progressMsg is a cumulative snapshot of the in-flight response. Snapshots
// supersede each other, so dropping one under load loses nothing.
type progressMsg struct {
	answer    string
	reasoning string
	toolCalls []model.ToolCall
}

// sendDoneMsg signals that the exchange settled or failed.
type sendDoneMsg struct {
	err error
}

// agentsMsg delivers the aggregated agent list.
type agentsMsg struct {
	agents []model.Agent
}

// blocksMsg delivers an agent's memory blocks.
type blocksMsg struct {
	blocks []agent.MemoryBlock
	err    error
}

// =============================================================================
// ENGINE BRIDGE
// =============================================================================

// chanObserver forwards engine progress into a Bubble Tea channel. It keeps
// the latest cumulative state and pushes snapshots without ever blocking
// the engine; a full channel drops the snapshot.
type chanObserver struct {
	ch        chan tea.Msg
	answer    string
	reasoning string
	toolCalls []model.ToolCall
}

func newChanObserver() *chanObserver {
	return &chanObserver{ch: make(chan tea.Msg, 64)}
}

func (o *chanObserver) OnAnswer(text string) {
	o.answer = text
	o.push()
}

func (o *chanObserver) OnReasoning(text string) {
	o.reasoning = text
	o.push()
}

func (o *chanObserver) OnToolCalls(calls []model.ToolCall) {
	o.toolCalls = calls
	o.push()
}

func (o *chanObserver) OnDone(err error) {
	// Completion must arrive; block until the loop drains the channel.
	o.ch <- sendDoneMsg{err: err}
}

func (o *chanObserver) push() {
	snap := progressMsg{answer: o.answer, reasoning: o.reasoning, toolCalls: o.toolCalls}
	select {
	case o.ch <- snap:
	default:
	}
}

// waitForProgress returns a command that delivers the next bridged message.
// Re-armed by the update loop after every delivery until sendDoneMsg.
func waitForProgress(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
