// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_BasicEvents(t *testing.T) {
	input := "data: {\"a\":1}\n\ndata: {\"b\":2}\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("First event = %q", data)
	}

	_, data, err = reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	if string(data) != `{"b":2}` {
		t.Errorf("Second event = %q", data)
	}

	if _, _, err = reader.ReadEvent(); err != io.EOF {
		t.Errorf("Expected EOF, got %v", err)
	}
}

func TestSSEReader_EventTypeAndCRLF(t *testing.T) {
	input := "event: update\r\ndata: payload\r\n\r\n"
	reader := NewSSEReader(strings.NewReader(input))

	eventType, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	if eventType != "update" || string(data) != "payload" {
		t.Errorf("Got type=%q data=%q", eventType, data)
	}
}

func TestSSEReader_TrailingDataBeforeEOF(t *testing.T) {
	// Final event not terminated by a blank line still surfaces.
	reader := NewSSEReader(strings.NewReader("data: tail\n"))
	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	if string(data) != "tail" {
		t.Errorf("Trailing event = %q", data)
	}
}

func TestSSEReader_IgnoresCommentsAndIDs(t *testing.T) {
	input := ": keepalive\nid: 42\nretry: 1000\ndata: real\n\n"
	reader := NewSSEReader(strings.NewReader(input))
	_, data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent error: %v", err)
	}
	if string(data) != "real" {
		t.Errorf("Expected only data field, got %q", data)
	}
}

// =============================================================================
// STREAMING SEND TESTS
// =============================================================================

// sseHandler writes the given SSE frames and closes the stream.
func sseHandler(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range frames {
			io.WriteString(w, "data: "+f+"\n\n")
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
	}
}

func TestStream_DeliversEvents(t *testing.T) {
	server := httptest.NewServer(sseHandler(
		`{"message_type":"assistant_message","id":"m1","content":"Hello"}`,
		`{"message_type":"reasoning_message","reasoning":"thinking"}`,
		`{"message_type":"stop_reason","stop_reason":"end_turn"}`,
		"[DONE]",
	))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	var types []string
	err := client.Stream(context.Background(), "agent-1", "hi", func(event StreamEvent) {
		types = append(types, event.MessageType)
	})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("Expected 3 events, got %d: %v", len(types), types)
	}
	if types[0] != TypeAssistantMessage || types[1] != TypeReasoning {
		t.Errorf("Unexpected event order: %v", types)
	}
}

func TestStream_SkipsMalformedEvents(t *testing.T) {
	server := httptest.NewServer(sseHandler(
		`{not json`,
		`{"message_type":"assistant_message","content":"ok"}`,
	))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	var count int
	err := client.Stream(context.Background(), "agent-1", "hi", func(event StreamEvent) {
		count++
	})
	if err != nil {
		t.Fatalf("Stream error: %v", err)
	}
	if count != 1 {
		t.Errorf("Malformed event should be skipped, got %d events", count)
	}
}

func TestStream_ErrorEventPreservesPartial(t *testing.T) {
	server := httptest.NewServer(sseHandler(
		`{"message_type":"assistant_message","content":"partial answer"}`,
		`{"message_type":"error","message":"backend exploded"}`,
	))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	err := client.Stream(context.Background(), "agent-1", "hi", func(StreamEvent) {})
	if err == nil {
		t.Fatal("Expected stream error")
	}

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("Expected StreamError, got %T: %v", err, err)
	}
	if streamErr.Partial != "partial answer" {
		t.Errorf("Expected preserved partial content, got %q", streamErr.Partial)
	}

	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Errorf("A service-reported failure should unwrap to RemoteError, got %v", err)
	}
}

func TestStream_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"message_type\":\"ping\"}\n\n")
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient("test-key").WithBaseURL(server.URL)

	go func() {
		<-started
		cancel()
	}()

	err := client.Stream(ctx, "agent-1", "hi", func(StreamEvent) {})
	if err == nil {
		t.Fatal("Expected error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestStream_RespectsRateLimiter(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The limiter wait runs before the request goes out and honors the
	// context like the unary path does.
	client := NewClient("test-key").WithBaseURL(server.URL)
	err := client.Stream(ctx, "agent-1", "hi", func(StreamEvent) {})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from the limiter wait, got %v", err)
	}
	if requests != 0 {
		t.Errorf("No request should be issued on a dead context, got %d", requests)
	}
}

func TestStream_HTTPErrorMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	err := client.Stream(context.Background(), "agent-1", "hi", func(StreamEvent) {})
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Expected ErrAuthFailed, got %v", err)
	}
}

// =============================================================================
// BATCH SEND TESTS
// =============================================================================

func TestSendOnce_Shapes(t *testing.T) {
	for name, body := range map[string]string{
		"array":    `[{"message_type":"assistant_message","content":"hi"}]`,
		"messages": `{"messages":[{"message_type":"assistant_message","content":"hi"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/messages") {
					t.Errorf("Unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(body))
			}))
			defer server.Close()

			client := NewClient("test-key").WithBaseURL(server.URL)
			events, err := client.SendOnce(context.Background(), "agent-1", "hi")
			if err != nil {
				t.Fatalf("SendOnce error: %v", err)
			}
			if len(events) != 1 || events[0].Text() != "hi" {
				t.Errorf("Unexpected events: %+v", events)
			}
		})
	}
}
