// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentdeck/internal/agent"
	"github.com/jeranaias/agentdeck/internal/kv"
	"github.com/jeranaias/agentdeck/internal/model"
	"github.com/jeranaias/agentdeck/internal/store"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// fakeSender is a scripted Streamer.
type fakeSender struct {
	streaming   bool
	events      []agent.StreamEvent
	streamErr   error
	batchEvents []agent.StreamEvent
	batchErr    error

	streamCalls int
	batchCalls  int
}

func (f *fakeSender) SupportsStreaming() bool { return f.streaming }

func (f *fakeSender) Stream(ctx context.Context, agentID, text string, cb agent.StreamCallback) error {
	f.streamCalls++
	for _, ev := range f.events {
		cb(ev)
	}
	return f.streamErr
}

func (f *fakeSender) SendOnce(ctx context.Context, agentID, text string) ([]agent.StreamEvent, error) {
	f.batchCalls++
	return f.batchEvents, f.batchErr
}

// recorder captures observer callbacks in arrival order.
type recorder struct {
	answers   []string
	reasoning []string
	toolCalls [][]model.ToolCall
	doneErr   error
	done      bool
}

func (r *recorder) OnAnswer(text string)              { r.answers = append(r.answers, text) }
func (r *recorder) OnReasoning(text string)           { r.reasoning = append(r.reasoning, text) }
func (r *recorder) OnToolCalls(calls []model.ToolCall) { r.toolCalls = append(r.toolCalls, calls) }
func (r *recorder) OnDone(err error)                  { r.done, r.doneErr = true, err }

func contentEvent(id, text string) agent.StreamEvent {
	raw, _ := json.Marshal(text)
	return agent.StreamEvent{MessageType: agent.TypeAssistantMessage, ID: id, Content: raw}
}

func deltaEvent(id, text string) agent.StreamEvent {
	return agent.StreamEvent{MessageType: agent.TypeAssistantMessage, ID: id, Delta: &agent.ContentDelta{Text: text}}
}

func reasoningEvent(text string) agent.StreamEvent {
	return agent.StreamEvent{MessageType: agent.TypeReasoning, Reasoning: text}
}

func toolEvent(name, callID, args string) agent.StreamEvent {
	return agent.StreamEvent{
		MessageType: agent.TypeToolCall,
		ToolCall:    &agent.ToolCallPayload{Name: name, ToolCallID: callID, Arguments: json.RawMessage(args)},
	}
}

func newFixture(t *testing.T) (*Engine, *store.ConversationStore, kv.Store, string) {
	t.Helper()
	backing := kv.NewMemStore()
	cs := store.Open(backing)
	conv, err := cs.Start(model.Agent{ID: "agent-1", Name: "Scout", AccountID: "primary"})
	require.NoError(t, err)
	return New(cs), cs, backing, conv.ID
}

// =============================================================================
// RECONCILIATION TESTS
// =============================================================================

func TestSend_RevisionReplacesNotConcatenates(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			contentEvent("m1", "Hi"),
			contentEvent("m1", "Hi there"),
		},
	}

	rec := &recorder{}
	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", rec))

	conv, _ := cs.Get(convID)
	last := conv.LastMessage()
	assert.Equal(t, "Hi there", last.Content, "a growing revision replaces, never concatenates")
	assert.Equal(t, []string{"Hi", "Hi there"}, rec.answers)
	assert.True(t, rec.done)
	assert.NoError(t, rec.doneErr)
}

func TestSend_StaleShorterRevisionIgnored(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			contentEvent("m1", "Hi there"),
			contentEvent("m1", "Hi"),
		},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	conv, _ := cs.Get(convID)
	assert.Equal(t, "Hi there", conv.LastMessage().Content)
}

func TestSend_MultipleIdsConcatInDiscoveryOrder(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			contentEvent("m1", "First part. "),
			contentEvent("m2", "Second part."),
			contentEvent("m1", "First part, revised. "),
		},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	conv, _ := cs.Get(convID)
	assert.Equal(t, "First part, revised. Second part.", conv.LastMessage().Content)
}

func TestSend_DeltasAppend(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			deltaEvent("m1", "Hel"),
			deltaEvent("m1", "lo"),
		},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	conv, _ := cs.Get(convID)
	assert.Equal(t, "Hello", conv.LastMessage().Content)
}

func TestSend_ReasoningJoinedWithNewlines(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			reasoningEvent("step one"),
			reasoningEvent("step two"),
			contentEvent("m1", "answer"),
		},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	conv, _ := cs.Get(convID)
	assert.Equal(t, "step one\nstep two", conv.LastMessage().Reasoning)
}

func TestSend_ToolCallDedup(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			toolEvent("search", "c1", `{"query":"a"}`),
			toolEvent("search", "c1", `{"query":"ab"}`),
			toolEvent("fetch", "c2", `{}`),
		},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	conv, _ := cs.Get(convID)
	calls := conv.LastMessage().ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, "search", calls[0].Name)
	assert.Equal(t, "ab", calls[0].Arguments["query"], "repeated events for a call revise the entry in place")
	assert.Equal(t, "fetch", calls[1].Name)
}

// =============================================================================
// PATH SELECTION TESTS
// =============================================================================

func TestSend_FallbackExactlyOnce(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming:   true,
		streamErr:   errors.New("transport dropped"),
		batchEvents: []agent.StreamEvent{contentEvent("m1", "batch answer")},
	}

	rec := &recorder{}
	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", rec),
		"a recovered streaming failure must not surface")
	assert.Equal(t, 1, sender.streamCalls)
	assert.Equal(t, 1, sender.batchCalls)

	conv, _ := cs.Get(convID)
	assert.Equal(t, "batch answer", conv.LastMessage().Content)
}

func TestSend_StreamPartialDiscardedOnFallback(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming:   true,
		events:      []agent.StreamEvent{contentEvent("m1", "partial from stream")},
		streamErr:   errors.New("mid-stream drop"),
		batchEvents: []agent.StreamEvent{contentEvent("m9", "clean batch answer")},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	conv, _ := cs.Get(convID)
	assert.Equal(t, "clean batch answer", conv.LastMessage().Content,
		"the fallback response is reconstructed from scratch")
}

func TestSend_NonStreamingSenderSkipsStream(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming:   false,
		batchEvents: []agent.StreamEvent{contentEvent("m1", "batch only")},
	}

	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil))
	assert.Equal(t, 0, sender.streamCalls)
	assert.Equal(t, 1, sender.batchCalls)

	conv, _ := cs.Get(convID)
	assert.Equal(t, "batch only", conv.LastMessage().Content)
}

// =============================================================================
// FAILURE POLICY TESTS
// =============================================================================

func TestSend_FullRetractionOnFailure(t *testing.T) {
	eng, cs, backing, convID := newFixture(t)
	before, _ := cs.Get(convID)
	countBefore := len(before.Messages)

	sender := &fakeSender{
		streaming: true,
		streamErr: errors.New("transport dropped"),
		batchErr:  errors.New("backend down"),
	}

	rec := &recorder{}
	err := eng.Send(context.Background(), sender, "agent-1", convID, "hello", rec)
	require.Error(t, err)
	assert.ErrorContains(t, err, "backend down")
	assert.True(t, rec.done)
	assert.Error(t, rec.doneErr)

	after, _ := cs.Get(convID)
	assert.Equal(t, countBefore, len(after.Messages), "failed send leaves no trace")

	// Retraction is symmetric: persistence matches memory.
	reopened := store.Open(backing)
	diskConv, _ := reopened.Get(convID)
	assert.Equal(t, countBefore, len(diskConv.Messages))
}

func TestSend_RemoteErrorInBatchKeepsPartial(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: false,
		batchEvents: []agent.StreamEvent{
			contentEvent("m1", "half an answer"),
			{MessageType: agent.TypeError, Message: "overloaded"},
		},
	}

	err := eng.Send(context.Background(), sender, "agent-1", convID, "hello", nil)
	require.Error(t, err)
	var remote *agent.RemoteError
	assert.ErrorAs(t, err, &remote)

	after, _ := cs.Get(convID)
	require.Len(t, after.Messages, 2, "a service-reported failure keeps the exchange")
	assert.Equal(t, "half an answer", after.LastMessage().Content)
}

func TestSend_RemoteErrorMidStreamDoesNotFallBack(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events:    []agent.StreamEvent{contentEvent("m1", "partial")},
		streamErr: &agent.StreamError{Partial: "partial", Err: &agent.RemoteError{Message: "agent stopped: error"}},
	}

	rec := &recorder{}
	err := eng.Send(context.Background(), sender, "agent-1", convID, "hello", rec)
	require.Error(t, err)
	assert.Equal(t, 0, sender.batchCalls, "only transport failures trigger the fallback")
	assert.Error(t, rec.doneErr)

	after, _ := cs.Get(convID)
	assert.Equal(t, "partial", after.LastMessage().Content, "streamed partial content survives")
}

func TestSend_EmptyAgentIDFailsWithoutMutation(t *testing.T) {
	eng, cs, _, convID := newFixture(t)
	sender := &fakeSender{streaming: true}

	rec := &recorder{}
	err := eng.Send(context.Background(), sender, "", convID, "hello", rec)
	require.ErrorIs(t, err, ErrNoAgent)
	assert.True(t, rec.done)
	assert.ErrorIs(t, rec.doneErr, ErrNoAgent)

	assert.Equal(t, 0, sender.streamCalls, "no request leaves the engine without an agent")
	assert.Equal(t, 0, sender.batchCalls)

	after, _ := cs.Get(convID)
	assert.Empty(t, after.Messages, "the conversation is untouched")
}

func TestSend_UnknownConversation(t *testing.T) {
	eng, _, _, _ := newFixture(t)
	sender := &fakeSender{streaming: false}
	err := eng.Send(context.Background(), sender, "agent-1", "conv_missing", "hello", nil)
	require.Error(t, err)
}

// =============================================================================
// ORDERING TESTS
// =============================================================================

func TestSend_ObserverSeesMonotonicProgress(t *testing.T) {
	eng, _, _, convID := newFixture(t)
	sender := &fakeSender{
		streaming: true,
		events: []agent.StreamEvent{
			deltaEvent("m1", "a"),
			deltaEvent("m1", "b"),
			deltaEvent("m1", "c"),
		},
	}

	rec := &recorder{}
	require.NoError(t, eng.Send(context.Background(), sender, "agent-1", convID, "hello", rec))
	assert.Equal(t, []string{"a", "ab", "abc"}, rec.answers)
}

// =============================================================================
// ACCUMULATOR UNIT TESTS
// =============================================================================

func TestAccumulator_IgnoresNonObservableEvents(t *testing.T) {
	acc := newAccumulator()
	assert.False(t, acc.Apply(agent.StreamEvent{MessageType: agent.TypePing}))
	assert.False(t, acc.Apply(agent.StreamEvent{MessageType: agent.TypeUsage}))
	assert.False(t, acc.Apply(agent.StreamEvent{MessageType: agent.TypeToolReturn}))
	assert.Empty(t, acc.Answer())
	assert.Empty(t, acc.Reasoning())
	assert.Nil(t, acc.ToolCalls())
}

func TestAccumulator_HiddenReasoningCounts(t *testing.T) {
	acc := newAccumulator()
	acc.Apply(agent.StreamEvent{MessageType: agent.TypeHiddenReasoning, Reasoning: "private step"})
	assert.Equal(t, "private step", acc.Reasoning())
}

func TestAccumulator_ToolCallsWithoutIDNeverDedup(t *testing.T) {
	acc := newAccumulator()
	acc.Apply(toolEvent("search", "", `{}`))
	acc.Apply(toolEvent("search", "", `{}`))
	assert.Len(t, acc.ToolCalls(), 2)
}
