// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Message type discriminators carried in the message_type field.
const (
	TypeAssistantMessage = "assistant_message"
	TypeReasoning        = "reasoning_message"
	TypeHiddenReasoning  = "hidden_reasoning_message"
	TypeToolCall         = "tool_call_message"
	TypeToolReturn       = "tool_return_message"
	TypePing             = "ping"
	TypeUsage            = "usage_statistics"
	TypeStopReason       = "stop_reason"
	TypeError            = "error"
)

// StreamEvent is one event from a response, streaming or batch. The same
// type covers every discriminator; fields irrelevant to a given message_type
// are simply zero.
type StreamEvent struct {
	MessageType string `json:"message_type"`

	// ID identifies the sub-message an assistant content event belongs to.
	// Some backend versions revise a sub-message by re-sending it with
	// strictly growing text under the same id.
	ID   string `json:"id,omitempty"`
	OTID string `json:"otid,omitempty"`

	// Assistant content: a plain string, a list of text blocks, or absent
	// (with the text in Delta instead). Kept raw and normalized via Text.
	Content json.RawMessage `json:"content,omitempty"`
	Delta   *ContentDelta   `json:"delta,omitempty"`

	// Reasoning carries the fragment for reasoning_message and
	// hidden_reasoning_message events.
	Reasoning string `json:"reasoning,omitempty"`

	// Tool call fields; Arguments is structured or a JSON-encoded string.
	ToolCall *ToolCallPayload `json:"tool_call,omitempty"`

	// Terminal fields.
	StopReason string `json:"stop_reason,omitempty"`
	Message    string `json:"message,omitempty"` // error detail
}

// ContentDelta is the incremental text representation.
type ContentDelta struct {
	Text string `json:"text"`
}

// ToolCallPayload is the raw tool invocation as it appears on the wire.
type ToolCallPayload struct {
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

// ToolInvocation is the normalized tool call handed to callers.
type ToolInvocation struct {
	Name       string
	Arguments  map[string]any
	ToolCallID string
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// contentBlock is one element of the structured content representation.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Text normalizes the event's assistant text: plain string content, a list
// of text blocks (concatenated), or a delta fragment. Unrecognized shapes
// degrade to "" rather than erroring.
func (e *StreamEvent) Text() string {
	if len(e.Content) > 0 {
		trimmed := bytes.TrimSpace(e.Content)
		if len(trimmed) > 0 {
			switch trimmed[0] {
			case '"':
				var s string
				if err := json.Unmarshal(trimmed, &s); err == nil {
					return s
				}
			case '[':
				var blocks []contentBlock
				if err := json.Unmarshal(trimmed, &blocks); err == nil {
					var sb strings.Builder
					for _, b := range blocks {
						if b.Type == "" || b.Type == "text" {
							sb.WriteString(b.Text)
						}
					}
					return sb.String()
				}
			}
		}
	}
	if e.Delta != nil {
		return e.Delta.Text
	}
	return ""
}

// IsDelta reports whether the event carries an incremental fragment that
// should be appended rather than replace the best-known text.
func (e *StreamEvent) IsDelta() bool {
	return len(e.Content) == 0 && e.Delta != nil
}

// ReasoningText returns the reasoning fragment of the event.
func (e *StreamEvent) ReasoningText() string {
	if e.Reasoning != "" {
		return e.Reasoning
	}
	// Some versions put reasoning in the content field.
	return e.Text()
}

// Invocation extracts the normalized tool call from a tool_call_message
// event. Arguments that arrive as a JSON-encoded string are parsed; when the
// parse fails the raw string is preserved under the "raw" key instead of
// being discarded.
func (e *StreamEvent) Invocation() (ToolInvocation, bool) {
	if e.MessageType != TypeToolCall || e.ToolCall == nil || e.ToolCall.Name == "" {
		return ToolInvocation{}, false
	}

	inv := ToolInvocation{
		Name:       e.ToolCall.Name,
		ToolCallID: e.ToolCall.ToolCallID,
	}
	inv.Arguments = parseArguments(e.ToolCall.Arguments)
	return inv, true
}

// parseArguments normalizes a raw arguments payload: already-structured
// object, JSON-encoded-string-of-object, or opaque string.
func parseArguments(raw json.RawMessage) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var args map[string]any
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &args); err == nil {
			return args
		}
		return map[string]any{"raw": string(trimmed)}
	}

	var encoded string
	if err := json.Unmarshal(trimmed, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &args); err == nil {
			return args
		}
		return map[string]any{"raw": encoded}
	}

	return map[string]any{"raw": string(trimmed)}
}

// RemoteError is a failure the agent service itself reported inside the
// response, as opposed to a transport failure reaching it. Content streamed
// before a RemoteError is trustworthy and callers keep it.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Err returns the operation error this event represents, or nil. Both
// explicit error events and failing stop reasons count; either way the
// result is a *RemoteError.
func (e *StreamEvent) Err() error {
	switch e.MessageType {
	case TypeError:
		if e.Message != "" {
			return &RemoteError{Message: "agent reported error: " + e.Message}
		}
		return &RemoteError{Message: "agent reported error"}
	case TypeStopReason:
		switch e.StopReason {
		case "error", "invalid_tool_call", "cancelled":
			return &RemoteError{Message: "agent stopped: " + e.StopReason}
		}
	}
	return nil
}

// decodeEventList normalizes a non-streaming response body: a bare array of
// events or an object exposing a messages-like field.
func decodeEventList(body []byte) ([]StreamEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []StreamEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("failed to parse events: %w", err)
		}
		return events, nil
	}

	var env struct {
		Messages []StreamEvent `json:"messages"`
		Data     []StreamEvent `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	if env.Messages != nil {
		return env.Messages, nil
	}
	return env.Data, nil
}
