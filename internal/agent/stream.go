// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// STREAMING: Robust SSE parsing with error handling

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxChunkSize is the maximum allowed size for a single SSE event (64KB)
const MaxChunkSize = 64 * 1024

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamCallback is invoked for each event received from a stream.
type StreamCallback func(event StreamEvent)

// Streamer is the send surface the response engine depends on. A client
// states up front whether it supports streaming; callers never probe
// per-call.
type Streamer interface {
	// SupportsStreaming reports whether Stream is usable for this client.
	SupportsStreaming() bool

	// Stream sends text to an agent and delivers response events through
	// the callback as they arrive.
	Stream(ctx context.Context, agentID, text string, callback StreamCallback) error

	// SendOnce sends text to an agent and returns the complete list of
	// response events in one batch.
	SendOnce(ctx context.Context, agentID, text string) ([]StreamEvent, error)
}

// StreamError represents an error that occurred during streaming,
// preserving any partial content received before the error.
type StreamError struct {
	Partial string // Content received before error
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// messageRequest is the wire shape of a send, streaming or batch.
type messageRequest struct {
	Messages []outgoingMessage `json:"messages"`
}

type outgoingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event from the stream.
// Returns the event type, data, and any error.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte
	var total int

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// If we have data, return it before EOF
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		// Trim trailing newline and carriage return
		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		// Parse field
		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			total += len(data)
			if total > MaxChunkSize {
				return "", nil, fmt.Errorf("event too large: %d bytes", total)
			}
			dataLines = append(dataLines, data)
		}
		// Ignore other fields (id:, retry:, comments starting with :)
	}
}

// =============================================================================
// STREAMING SEND
// =============================================================================

// SupportsStreaming reports that this client can stream responses.
func (c *Client) SupportsStreaming() bool {
	return true
}

// Stream sends a user message to the agent and delivers response events
// through the callback. Supports context cancellation.
func (c *Client) Stream(ctx context.Context, agentID, text string, callback StreamCallback) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := c.baseURL + "/v1/agents/" + agentID + "/messages/stream"

	reqBody := messageRequest{
		Messages: []outgoingMessage{{Role: "user", Content: text}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	// PERFORMANCE: Use shared streaming client with connection pooling (timeout handled via context)
	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle error responses
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return handleErrorResponse(resp.StatusCode, body)
	}

	return processStream(ctx, resp.Body, callback)
}

// processStream reads and processes the SSE stream.
func processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)
	var partial bytes.Buffer

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if partial.Len() > 0 {
				return &StreamError{Partial: partial.String(), Err: err}
			}
			return err
		}

		// Check for [DONE] signal
		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		// Skip malformed events rather than aborting the stream
		var event StreamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		if err := event.Err(); err != nil {
			if partial.Len() > 0 {
				return &StreamError{Partial: partial.String(), Err: err}
			}
			return err
		}

		if event.MessageType == TypeAssistantMessage {
			partial.WriteString(event.Text())
		}

		callback(event)
	}
}

// =============================================================================
// BATCH SEND
// =============================================================================

// SendOnce sends a user message to the agent and returns the complete
// response as a batch of events.
func (c *Client) SendOnce(ctx context.Context, agentID, text string) ([]StreamEvent, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	reqBody := messageRequest{
		Messages: []outgoingMessage{{Role: "user", Content: text}},
	}

	body, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/agents/"+agentID+"/messages", reqBody)
	if err != nil {
		return nil, err
	}

	return decodeEventList(body)
}
