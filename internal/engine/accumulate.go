// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"strings"

	"github.com/jeranaias/agentdeck/internal/agent"
	"github.com/jeranaias/agentdeck/internal/model"
)

// =============================================================================
// RESPONSE ACCUMULATOR
// =============================================================================

// accumulator folds response events into the reconciled answer, reasoning
// trace, and tool-call list.
//
// Answer text is tracked per sub-message identifier. Backends that revise a
// sub-message re-send it under the same id with strictly growing text, so a
// full-content event replaces the best-known text for its id while a delta
// appends to it. The displayed answer is the concatenation of every id's
// best-known text in discovery order. Events without an id share the empty
// id slot.
type accumulator struct {
	order     []string
	text      map[string]string
	reasoning []string
	toolCalls []model.ToolCall
	toolIndex map[string]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		text:      make(map[string]string),
		toolIndex: make(map[string]int),
	}
}

// Apply folds one event into the accumulator and reports whether it changed
// any observable state.
func (a *accumulator) Apply(event agent.StreamEvent) bool {
	switch event.MessageType {
	case agent.TypeAssistantMessage:
		return a.applyContent(event)
	case agent.TypeReasoning, agent.TypeHiddenReasoning:
		if frag := event.ReasoningText(); frag != "" {
			a.reasoning = append(a.reasoning, frag)
			return true
		}
	case agent.TypeToolCall:
		if inv, ok := event.Invocation(); ok {
			a.applyToolCall(inv)
			return true
		}
	}
	return false
}

func (a *accumulator) applyContent(event agent.StreamEvent) bool {
	text := event.Text()
	if text == "" {
		return false
	}

	id := event.ID
	known, seen := a.text[id]
	if !seen {
		a.order = append(a.order, id)
	}

	if event.IsDelta() {
		a.text[id] = known + text
		return true
	}

	// Full re-send: a revision never shrinks, so a shorter payload is a
	// stale duplicate and the longer best-known text wins.
	if len(text) >= len(known) {
		a.text[id] = text
	}
	return true
}

func (a *accumulator) applyToolCall(inv agent.ToolInvocation) {
	call := model.ToolCall{
		Name:       inv.Name,
		Arguments:  inv.Arguments,
		ToolCallID: inv.ToolCallID,
	}

	if inv.ToolCallID != "" {
		if i, ok := a.toolIndex[inv.ToolCallID]; ok {
			a.toolCalls[i] = call
			return
		}
		a.toolIndex[inv.ToolCallID] = len(a.toolCalls)
	}
	a.toolCalls = append(a.toolCalls, call)
}

// Answer returns the reconciled answer text.
func (a *accumulator) Answer() string {
	var sb strings.Builder
	for _, id := range a.order {
		sb.WriteString(a.text[id])
	}
	return sb.String()
}

// Reasoning returns the reasoning fragments joined with newlines.
func (a *accumulator) Reasoning() string {
	return strings.Join(a.reasoning, "\n")
}

// ToolCalls returns the deduplicated tool-call list in arrival order.
func (a *accumulator) ToolCalls() []model.ToolCall {
	if len(a.toolCalls) == 0 {
		return nil
	}
	out := make([]model.ToolCall, len(a.toolCalls))
	copy(out, a.toolCalls)
	return out
}
