// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// CONTENT NORMALIZATION TESTS
// =============================================================================

func TestEventText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"plain string content",
			`{"message_type":"assistant_message","content":"Hello there"}`,
			"Hello there",
		},
		{
			"block list content",
			`{"message_type":"assistant_message","content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}]}`,
			"Hello there",
		},
		{
			"delta fragment",
			`{"message_type":"assistant_message","delta":{"text":"Hel"}}`,
			"Hel",
		},
		{
			"content wins over delta",
			`{"message_type":"assistant_message","content":"full","delta":{"text":"frag"}}`,
			"full",
		},
		{
			"unrecognized shape degrades to empty",
			`{"message_type":"assistant_message","content":{"weird":true}}`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event StreamEvent
			if err := json.Unmarshal([]byte(tt.raw), &event); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if got := event.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventIsDelta(t *testing.T) {
	var delta StreamEvent
	json.Unmarshal([]byte(`{"message_type":"assistant_message","delta":{"text":"x"}}`), &delta)
	if !delta.IsDelta() {
		t.Error("Delta-only event should report IsDelta")
	}

	var full StreamEvent
	json.Unmarshal([]byte(`{"message_type":"assistant_message","content":"x"}`), &full)
	if full.IsDelta() {
		t.Error("Content-bearing event should not report IsDelta")
	}
}

// =============================================================================
// TOOL CALL EXTRACTION TESTS
// =============================================================================

func TestInvocation_StructuredArguments(t *testing.T) {
	raw := `{"message_type":"tool_call_message","tool_call":{"name":"search","arguments":{"query":"weather","limit":3},"tool_call_id":"call-1"}}`
	var event StreamEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	inv, ok := event.Invocation()
	if !ok {
		t.Fatal("Expected an invocation")
	}
	if inv.Name != "search" || inv.ToolCallID != "call-1" {
		t.Errorf("Unexpected invocation: %+v", inv)
	}
	if inv.Arguments["query"] != "weather" {
		t.Errorf("Expected parsed arguments, got %+v", inv.Arguments)
	}
}

func TestInvocation_EncodedStringArguments(t *testing.T) {
	raw := `{"message_type":"tool_call_message","tool_call":{"name":"search","arguments":"{\"query\":\"weather\"}"}}`
	var event StreamEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	inv, ok := event.Invocation()
	if !ok {
		t.Fatal("Expected an invocation")
	}
	if inv.Arguments["query"] != "weather" {
		t.Errorf("Expected double-decoded arguments, got %+v", inv.Arguments)
	}
}

func TestInvocation_UnparseableArgumentsPreserved(t *testing.T) {
	raw := `{"message_type":"tool_call_message","tool_call":{"name":"search","arguments":"not json at all"}}`
	var event StreamEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	inv, ok := event.Invocation()
	if !ok {
		t.Fatal("Expected an invocation despite bad arguments")
	}
	if inv.Arguments["raw"] != "not json at all" {
		t.Errorf("Raw arguments should be preserved, got %+v", inv.Arguments)
	}
}

func TestInvocation_RequiresName(t *testing.T) {
	var event StreamEvent
	json.Unmarshal([]byte(`{"message_type":"tool_call_message","tool_call":{"arguments":{}}}`), &event)
	if _, ok := event.Invocation(); ok {
		t.Error("Nameless tool call should not yield an invocation")
	}

	var other StreamEvent
	json.Unmarshal([]byte(`{"message_type":"assistant_message","content":"x"}`), &other)
	if _, ok := other.Invocation(); ok {
		t.Error("Non-tool event should not yield an invocation")
	}
}

// =============================================================================
// ERROR EVENT TESTS
// =============================================================================

func TestEventErr(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"error event", `{"message_type":"error","message":"boom"}`, true},
		{"failing stop reason", `{"message_type":"stop_reason","stop_reason":"error"}`, true},
		{"cancelled stop reason", `{"message_type":"stop_reason","stop_reason":"cancelled"}`, true},
		{"normal stop reason", `{"message_type":"stop_reason","stop_reason":"end_turn"}`, false},
		{"assistant message", `{"message_type":"assistant_message","content":"hi"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var event StreamEvent
			if err := json.Unmarshal([]byte(tt.raw), &event); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if got := event.Err() != nil; got != tt.wantErr {
				t.Errorf("Err() != nil is %v, want %v", got, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// BATCH DECODING TESTS
// =============================================================================

func TestDecodeEventList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"message_type":"assistant_message","content":"a"},{"message_type":"stop_reason","stop_reason":"end_turn"}]`, 2},
		{"messages envelope", `{"messages":[{"message_type":"assistant_message","content":"a"}]}`, 1},
		{"data envelope", `{"data":[{"message_type":"assistant_message","content":"a"}]}`, 1},
		{"empty array", `[]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := decodeEventList([]byte(tt.body))
			if err != nil {
				t.Fatalf("decodeEventList error: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("Expected %d events, got %d", tt.want, len(events))
			}
		})
	}

	if _, err := decodeEventList([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed body")
	}
}
