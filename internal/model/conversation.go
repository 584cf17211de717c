// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/agentdeck/internal/util"
)

// TitleMaxRunes is the rune budget for auto-derived conversation titles.
const TitleMaxRunes = 50

// PreviewMaxRunes is the rune budget for last-message previews in lists.
const PreviewMaxRunes = 100

// =============================================================================
// AGENT TYPE
// =============================================================================

// Agent describes a remote conversational entity, tagged with the account it
// was listed from. Agents are read-only on this side; they are fetched on
// demand and never locally mutated.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a message history with one remote agent. The agent and
// account bindings are fixed at creation and never reassigned.
type Conversation struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agentId"`
	AgentName   string    `json:"agentName"`
	AgentColor  string    `json:"agentColor"`
	AccountID   string    `json:"accountId,omitempty"`
	AccountName string    `json:"accountName,omitempty"`
	Title       string    `json:"title,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Messages []*Message `json:"messages"`
}

// NewConversation creates an empty conversation bound to the given agent.
func NewConversation(agent Agent) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:          "conv_" + uuid.NewString(),
		AgentID:     agent.ID,
		AgentName:   agent.Name,
		AgentColor:  ColorFor(agent.ID),
		AccountID:   agent.AccountID,
		AccountName: agent.AccountName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    make([]*Message, 0),
	}
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// FirstUserMessage returns the earliest user message, or nil.
func (c *Conversation) FirstUserMessage() *Message {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg
		}
	}
	return nil
}

// DisplayTitle returns the stored title or the fallback label.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// DeriveTitle computes the title from the first user message: verbatim up to
// TitleMaxRunes runes, otherwise truncated with a three-character ellipsis.
func (c *Conversation) DeriveTitle() string {
	first := c.FirstUserMessage()
	if first == nil {
		return ""
	}
	return util.TruncateRunes(util.CollapseWhitespace(first.Content), TitleMaxRunes)
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	for i, msg := range c.Messages {
		msgCopy := *msg
		if msg.ToolCalls != nil {
			msgCopy.ToolCalls = append([]ToolCall(nil), msg.ToolCalls...)
		}
		clone.Messages[i] = &msgCopy
	}
	return &clone
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// Summary is the lightweight projection used for conversation lists.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	AgentName    string    `json:"agent_name"`
	AgentColor   string    `json:"agent_color"`
	Preview      string    `json:"preview"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summarize builds the list projection for the conversation. The preview is
// the last message's content, rune-truncated at PreviewMaxRunes.
func (c *Conversation) Summarize() Summary {
	preview := ""
	if last := c.LastMessage(); last != nil {
		preview = last.Preview(PreviewMaxRunes)
	}
	return Summary{
		ID:           c.ID,
		Title:        c.DisplayTitle(),
		AgentName:    c.AgentName,
		AgentColor:   c.AgentColor,
		Preview:      preview,
		MessageCount: len(c.Messages),
		UpdatedAt:    c.UpdatedAt,
	}
}
