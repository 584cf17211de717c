// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/agentdeck/internal/kv"
	"github.com/jeranaias/agentdeck/internal/model"
)

// ConversationStore holds all conversations in memory and writes them
// through to the key-value store on durable mutations.
type ConversationStore struct {
	mu            sync.RWMutex
	store         kv.Store
	conversations map[string]*model.Conversation
}

// Open loads the conversation history from the key-value store. A missing
// record means a fresh history; an unreadable record is logged and treated
// the same way rather than blocking startup.
func Open(store kv.Store) *ConversationStore {
	cs := &ConversationStore{
		store:         store,
		conversations: make(map[string]*model.Conversation),
	}

	raw, ok, err := store.Get(kv.KeyConversations)
	if err != nil {
		log.Printf("store: reading conversations failed, starting empty: %v", err)
		return cs
	}
	if !ok {
		return cs
	}

	var list []*model.Conversation
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		log.Printf("store: conversation history unreadable, starting empty: %v", err)
		return cs
	}
	for _, c := range list {
		if c != nil && c.ID != "" {
			cs.conversations[c.ID] = c
		}
	}
	return cs
}

// BackfillAccounts stamps the given account onto conversations recorded
// before account tracking existed. Already-stamped conversations are left
// alone.
func (s *ConversationStore) BackfillAccounts(accountID, accountName string) error {
	s.mu.Lock()
	changed := false
	for _, c := range s.conversations {
		if c.AccountID == "" {
			c.AccountID = accountID
			c.AccountName = accountName
			changed = true
		}
	}
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.save()
}

// save writes the full conversation list to the key-value store.
// Callers must not hold the lock.
func (s *ConversationStore) save() error {
	data, err := s.encode()
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	if err := s.store.Set(kv.KeyConversations, string(data)); err != nil {
		return fmt.Errorf("failed to persist conversations: %w", err)
	}
	return nil
}

// encode marshals the conversation list while holding the read lock. A
// concurrent send mutates message contents in place, so the marshal must not
// read live objects outside the lock.
func (s *ConversationStore) encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return json.Marshal(list)
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Start creates and persists an empty conversation bound to an agent, and
// marks it active.
func (s *ConversationStore) Start(agent model.Agent) (*model.Conversation, error) {
	conv := model.NewConversation(agent)

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	if err := s.save(); err != nil {
		return nil, err
	}
	if err := s.SetActiveConversation(conv.ID); err != nil {
		return nil, err
	}
	return conv.Clone(), nil
}

// Get returns a copy of the conversation with the given id.
func (s *ConversationStore) Get(id string) (*model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Delete removes one conversation. When the removed conversation was the
// active one, the active pointer is cleared too.
func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.conversations[id]
	delete(s.conversations, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("conversation %q not found", id)
	}
	if active, isSet, _ := s.store.Get(kv.KeyActiveConversation); isSet && active == id {
		if err := s.store.Delete(kv.KeyActiveConversation); err != nil {
			return fmt.Errorf("failed to clear active conversation: %w", err)
		}
	}
	return s.save()
}

// Clear removes every conversation and the active pointer.
func (s *ConversationStore) Clear() error {
	s.mu.Lock()
	s.conversations = make(map[string]*model.Conversation)
	s.mu.Unlock()

	if err := s.store.Delete(kv.KeyActiveConversation); err != nil {
		return fmt.Errorf("failed to clear active conversation: %w", err)
	}
	return s.save()
}

// List returns copies of the conversations bound to one agent, most recently
// updated first. An empty agent id selects all conversations.
func (s *ConversationStore) List(agentID string) []*model.Conversation {
	s.mu.RLock()
	list := make([]*model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		if agentID != "" && c.AgentID != agentID {
			continue
		}
		list = append(list, c.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list
}

// Summaries returns the list projection of List, under the same agent
// filter.
func (s *ConversationStore) Summaries(agentID string) []model.Summary {
	list := s.List(agentID)
	out := make([]model.Summary, len(list))
	for i, c := range list {
		out[i] = c.Summarize()
	}
	return out
}

// =============================================================================
// ACTIVE CONVERSATION
// =============================================================================

// SetActiveConversation persists which conversation a new session resumes.
func (s *ConversationStore) SetActiveConversation(id string) error {
	if err := s.store.Set(kv.KeyActiveConversation, id); err != nil {
		return fmt.Errorf("failed to persist active conversation: %w", err)
	}
	return nil
}

// ActiveConversation returns the persisted active conversation id. A pointer
// to a conversation that no longer exists counts as unset.
func (s *ConversationStore) ActiveConversation() (string, bool) {
	id, ok, err := s.store.Get(kv.KeyActiveConversation)
	if err != nil {
		log.Printf("store: reading active conversation failed: %v", err)
		return "", false
	}
	if !ok || id == "" {
		return "", false
	}

	s.mu.RLock()
	_, exists := s.conversations[id]
	s.mu.RUnlock()
	if !exists {
		return "", false
	}
	return id, true
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// Append adds a message to a conversation and persists. An untitled
// conversation receiving its first user message gets its title derived from
// that message.
func (s *ConversationStore) Append(convID string, msg *model.Message) error {
	s.mu.Lock()
	conv, ok := s.conversations[convID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("conversation %q not found", convID)
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = time.Now()
	if conv.Title == "" {
		conv.Title = conv.DeriveTitle()
	}
	s.mu.Unlock()

	return s.save()
}

// UpdateLastAssistant replaces the content, reasoning, and tool calls of the
// last message of a conversation when that message is an assistant message.
// Any other tail is a silent no-op; the store never invents a message. With
// persist false the update stays in memory only; streaming progress calls it
// that way and a final call with persist true settles the record.
func (s *ConversationStore) UpdateLastAssistant(convID, content, reasoning string, toolCalls []model.ToolCall, persist bool) error {
	s.mu.Lock()
	conv, ok := s.conversations[convID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("conversation %q not found", convID)
	}

	last := conv.LastMessage()
	if last == nil || last.Role != model.RoleAssistant {
		s.mu.Unlock()
		return nil
	}

	last.Content = content
	last.Reasoning = reasoning
	last.ToolCalls = toolCalls
	conv.UpdatedAt = time.Now()
	s.mu.Unlock()

	if !persist {
		return nil
	}
	return s.save()
}

// UpdateMessage replaces the content, reasoning, and tool calls of one
// assistant message, addressed by id. The response engine holds the id of
// its in-flight placeholder and targets it directly rather than assuming
// the tail. The persist flag works as in UpdateLastAssistant.
func (s *ConversationStore) UpdateMessage(convID, msgID, content, reasoning string, toolCalls []model.ToolCall, persist bool) error {
	s.mu.Lock()
	conv, ok := s.conversations[convID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("conversation %q not found", convID)
	}

	var target *model.Message
	for _, msg := range conv.Messages {
		if msg.ID == msgID {
			target = msg
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return fmt.Errorf("message %q not found in conversation %q", msgID, convID)
	}
	if target.Role != model.RoleAssistant {
		s.mu.Unlock()
		return fmt.Errorf("message %q is not an assistant message", msgID)
	}

	target.Content = content
	target.Reasoning = reasoning
	target.ToolCalls = toolCalls
	conv.UpdatedAt = time.Now()
	s.mu.Unlock()

	if !persist {
		return nil
	}
	return s.save()
}

// RemoveMessage deletes a message from a conversation by id and persists.
func (s *ConversationStore) RemoveMessage(convID, msgID string) error {
	s.mu.Lock()
	conv, ok := s.conversations[convID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("conversation %q not found", convID)
	}

	found := false
	for i, msg := range conv.Messages {
		if msg.ID == msgID {
			conv.Messages = append(conv.Messages[:i], conv.Messages[i+1:]...)
			found = true
			break
		}
	}
	if found {
		conv.UpdatedAt = time.Now()
	}
	s.mu.Unlock()

	if !found {
		return fmt.Errorf("message %q not found in conversation %q", msgID, convID)
	}
	return s.save()
}
