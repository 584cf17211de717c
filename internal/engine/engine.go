// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jeranaias/agentdeck/internal/agent"
	"github.com/jeranaias/agentdeck/internal/model"
	"github.com/jeranaias/agentdeck/internal/store"
)

// Observer receives live progress during a send. Callbacks fire in the
// order the underlying events arrived; the final durable store write
// strictly follows every callback of that send.
type Observer interface {
	// OnAnswer delivers the running answer text after each content event.
	OnAnswer(text string)

	// OnReasoning delivers the running reasoning trace.
	OnReasoning(text string)

	// OnToolCalls delivers the deduplicated tool-call list so far.
	OnToolCalls(calls []model.ToolCall)

	// OnDone fires once the exchange has settled or been retracted.
	OnDone(err error)
}

// NopObserver discards all progress callbacks.
type NopObserver struct{}

func (NopObserver) OnAnswer(string)             {}
func (NopObserver) OnReasoning(string)          {}
func (NopObserver) OnToolCalls([]model.ToolCall) {}
func (NopObserver) OnDone(error)                {}

// ErrNoAgent is returned by Send when no agent is selected. The conversation
// is left untouched.
var ErrNoAgent = errors.New("no agent selected")

// Engine reconciles remote agent responses into the conversation store.
type Engine struct {
	store *store.ConversationStore
}

// New creates an engine over a conversation store.
func New(cs *store.ConversationStore) *Engine {
	return &Engine{store: cs}
}

// =============================================================================
// SEND
// =============================================================================

// Send drives one exchange: the user text is appended optimistically along
// with a pending assistant message, the response is consumed (streaming when
// the sender supports it, batch otherwise), and the reconciled result is
// written durably into the pending message. An empty agent id fails with
// ErrNoAgent before anything is recorded.
//
// A streaming transport failure falls back to exactly one batch request and
// is never surfaced unless the fallback also fails. An error the agent
// service itself reports settles whatever partial state exists and surfaces
// the error without retrying. When the send fails outright, both optimistic
// messages are retracted from memory and persistence so a retry does not
// duplicate history, and the error is returned.
func (e *Engine) Send(ctx context.Context, sender agent.Streamer, agentID, convID, userInput string, obs Observer) error {
	if obs == nil {
		obs = NopObserver{}
	}

	if agentID == "" {
		obs.OnDone(ErrNoAgent)
		return ErrNoAgent
	}

	userMsg := model.NewMessage(model.RoleUser, userInput)
	if err := e.store.Append(convID, userMsg); err != nil {
		obs.OnDone(err)
		return err
	}

	pending := model.NewMessage(model.RoleAssistant, "")
	if err := e.store.Append(convID, pending); err != nil {
		e.retract(convID, userMsg.ID)
		obs.OnDone(err)
		return err
	}

	acc, err := e.consume(ctx, sender, agentID, convID, pending.ID, userInput, obs)
	if err != nil {
		var remote *agent.RemoteError
		if errors.As(err, &remote) && acc != nil {
			// The service answered and then failed. Keep what it said.
			if serr := e.settle(convID, pending.ID, acc); serr != nil {
				log.Printf("engine: %v", serr)
			}
			obs.OnDone(err)
			return err
		}
		e.retract(convID, pending.ID, userMsg.ID)
		obs.OnDone(err)
		return err
	}

	if err := e.settle(convID, pending.ID, acc); err != nil {
		obs.OnDone(err)
		return err
	}

	obs.OnDone(nil)
	return nil
}

// consume runs the streaming path with batch fallback and returns the
// reconciled accumulator. A returned accumulator alongside an error means
// the error came from the service itself and the accumulated state stands.
func (e *Engine) consume(ctx context.Context, sender agent.Streamer, agentID, convID, pendingID, userInput string, obs Observer) (*accumulator, error) {
	if sender.SupportsStreaming() {
		acc := newAccumulator()
		err := sender.Stream(ctx, agentID, userInput, func(event agent.StreamEvent) {
			if !acc.Apply(event) {
				return
			}
			e.publish(convID, pendingID, acc, obs)
		})
		if err == nil {
			return acc, nil
		}
		var remote *agent.RemoteError
		if errors.As(err, &remote) {
			return acc, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		log.Printf("engine: streaming failed, falling back to batch: %v", err)
	}

	return e.sendBatch(ctx, sender, agentID, userInput)
}

// sendBatch issues the single non-streaming request and folds its events.
// No intermediate publishing happens here; there is one settlement point.
func (e *Engine) sendBatch(ctx context.Context, sender agent.Streamer, agentID, userInput string) (*accumulator, error) {
	events, err := sender.SendOnce(ctx, agentID, userInput)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator()
	for _, event := range events {
		if err := event.Err(); err != nil {
			return acc, err
		}
		acc.Apply(event)
	}
	return acc, nil
}

// publish pushes the running reconciled state to the observer and, without
// final persistence, to the in-flight assistant message.
func (e *Engine) publish(convID, pendingID string, acc *accumulator, obs Observer) {
	if err := e.store.UpdateMessage(convID, pendingID, acc.Answer(), acc.Reasoning(), acc.ToolCalls(), false); err != nil {
		log.Printf("engine: in-flight update failed: %v", err)
	}
	obs.OnAnswer(acc.Answer())
	obs.OnReasoning(acc.Reasoning())
	obs.OnToolCalls(acc.ToolCalls())
}

// settle performs the single durable write for an exchange. Whatever was
// reconciled, partial or complete, is persisted into the pending message.
func (e *Engine) settle(convID, pendingID string, acc *accumulator) error {
	if err := e.store.UpdateMessage(convID, pendingID, acc.Answer(), acc.Reasoning(), acc.ToolCalls(), true); err != nil {
		return fmt.Errorf("failed to settle response: %w", err)
	}
	return nil
}

// retract removes optimistic messages after a failed send, in memory and in
// persistence alike, so the history reads as if the send never happened.
func (e *Engine) retract(convID string, msgIDs ...string) {
	for _, id := range msgIDs {
		if err := e.store.RemoveMessage(convID, id); err != nil {
			log.Printf("engine: retraction of %s failed: %v", id, err)
		}
	}
}
