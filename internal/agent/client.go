// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the agent service API.
const (
	// DefaultBaseURL is the hosted service endpoint; self-hosted deployments
	// override it per account.
	DefaultBaseURL = "https://api.letta.com"

	// DefaultTimeout is the default timeout for unary API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize caps response bodies read into memory.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

var (
	// Shared HTTP client with connection pooling for unary requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// Streaming requests have no client timeout; lifetime is context-controlled.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
)

// Error variables for common agent service errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("agent service API key not configured")

	// ErrAuthFailed indicates authentication failed.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrAgentNotFound indicates the requested agent does not exist.
	ErrAgentNotFound = errors.New("agent not found")
)

// APIError represents an error response from the agent service.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent service error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("agent service error (HTTP %d): %s", e.Status, e.Message)
}

// apiErrorResponse is the error envelope the service returns.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail string `json:"detail"`
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// AgentRecord is one agent as returned by the service.
type AgentRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MemoryBlock is a labeled, persisted text record the agent maintains.
type MemoryBlock struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Value string `json:"value"`
	Limit int    `json:"limit,omitempty"`
}

// CreateAgentRequest is the payload for creating a new agent.
type CreateAgentRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	MemoryBlocks []MemoryBlock `json:"memory_blocks,omitempty"`
	Model        string        `json:"model,omitempty"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an authenticated client for one agent service account.
type Client struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a client with the given API key against the default
// endpoint. An empty key yields a client whose requests fail with
// ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		// Bursty UI interactions are fine; sustained hammering is not.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
	return c
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// BaseURL returns the endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key, safe
// for logs. The key itself never appears in log output.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// setHeaders sets the required headers for agent service requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "agentdeck/0.1.0")
}

// readResponse reads a response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = apiErr.Detail
		}
		if msg != "" {
			wrapped := &APIError{Code: apiErr.Error.Code, Message: msg, Status: statusCode}
			switch statusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrAuthFailed, msg)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrAgentNotFound, msg)
			case http.StatusTooManyRequests:
				return fmt.Errorf("%w: %s", ErrRateLimited, msg)
			default:
				return wrapped
			}
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrAgentNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{Message: strings.TrimSpace(string(body)), Status: statusCode}
	}
}

// doJSON performs a unary request and returns the response body.
func (c *Client) doJSON(ctx context.Context, method, requestURL string, payload any) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("agent api: %s %s -> %d (%v)", method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return body, nil
}

// =============================================================================
// AGENT LISTING
// =============================================================================

// listEnvelope covers the wrapped-object response shapes for lists.
type listEnvelope struct {
	Data       []AgentRecord `json:"data"`
	Agents     []AgentRecord `json:"agents"`
	NextCursor string        `json:"next_cursor"`
}

// decodeAgentList normalizes a list response body: either a bare array or a
// wrapper object exposing a data-like field. Returns the records and, for
// paginated responses, the cursor of the next page.
func decodeAgentList(body []byte) ([]AgentRecord, string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []AgentRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, "", fmt.Errorf("failed to parse agent list: %w", err)
		}
		return records, "", nil
	}

	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, "", fmt.Errorf("failed to parse agent list: %w", err)
	}
	if env.Data != nil {
		return env.Data, env.NextCursor, nil
	}
	return env.Agents, env.NextCursor, nil
}

// ListAgents returns all agents visible to this account, optionally filtered
// by a name query. Paginated responses are drained page by page; the caller
// always sees one flat slice.
func (c *Client) ListAgents(ctx context.Context, query string) ([]AgentRecord, error) {
	var all []AgentRecord
	cursor := ""

	for {
		endpoint := c.baseURL + "/v1/agents"
		params := url.Values{}
		if query != "" {
			params.Set("name", query)
		}
		if cursor != "" {
			params.Set("after", cursor)
		}
		if encoded := params.Encode(); encoded != "" {
			endpoint += "?" + encoded
		}

		body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		records, next, err := decodeAgentList(body)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)

		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// CreateAgent creates a new agent and returns its record.
func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (AgentRecord, error) {
	body, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/agents", req)
	if err != nil {
		return AgentRecord{}, err
	}
	var record AgentRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return AgentRecord{}, fmt.Errorf("failed to parse created agent: %w", err)
	}
	return record, nil
}

// =============================================================================
// MEMORY BLOCKS
// =============================================================================

// ListBlocks returns the memory blocks of an agent.
func (c *Client) ListBlocks(ctx context.Context, agentID string) ([]MemoryBlock, error) {
	endpoint := c.baseURL + "/v1/agents/" + url.PathEscape(agentID) + "/core-memory/blocks"
	body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var blocks []MemoryBlock
		if err := json.Unmarshal(trimmed, &blocks); err != nil {
			return nil, fmt.Errorf("failed to parse memory blocks: %w", err)
		}
		return blocks, nil
	}

	var env struct {
		Data []MemoryBlock `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to parse memory blocks: %w", err)
	}
	return env.Data, nil
}

// GetBlock retrieves one memory block by label.
func (c *Client) GetBlock(ctx context.Context, agentID, label string) (MemoryBlock, error) {
	endpoint := c.baseURL + "/v1/agents/" + url.PathEscape(agentID) + "/core-memory/blocks/" + url.PathEscape(label)
	body, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MemoryBlock{}, err
	}
	var block MemoryBlock
	if err := json.Unmarshal(body, &block); err != nil {
		return MemoryBlock{}, fmt.Errorf("failed to parse memory block: %w", err)
	}
	return block, nil
}
