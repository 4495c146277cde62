// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the Dagan chat backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the chat backend.
const (
	// DefaultTimeout is the default timeout for backend requests.
	// The core has no timeout logic of its own; whatever the transport
	// reports is classified as-is.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// Error variables for classified backend failures.
var (
	// ErrNotConfigured indicates the backend URL is not set.
	ErrNotConfigured = errors.New("chat backend not configured")

	// ErrRateLimited indicates the upstream returned HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates the upstream returned HTTP 402.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrEmptyResponse indicates the backend returned no usable answer
	// text under any accepted response shape.
	ErrEmptyResponse = errors.New("empty response from backend")
)

// BackendError represents a non-2xx response from the backend.
type BackendError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Message represents a single role/content turn sent to the backend.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // plain text
}

// ChatRequest is the request body for the chat endpoint.
type ChatRequest struct {
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"systemPrompt"`
	Model        string    `json:"model,omitempty"`
}

// Answer is a successful backend result: the extracted answer text and
// the raw source list, passed through untouched for normalization by
// the citation model.
type Answer struct {
	Content string
	Sources json.RawMessage
}

// envelope matches the object response shapes the backend may produce.
// The answer may appear under either "response" or "message".
type envelope struct {
	Response string          `json:"response"`
	Message  string          `json:"message"`
	Sources  json.RawMessage `json:"sources"`
	Error    string          `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an HTTP client for the Dagan chat backend.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a backend client for the given chat endpoint URL.
// An empty URL yields a client whose calls fail with ErrNotConfigured.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: "dagan-tui/0.3.0",
	}
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithModel sets an explicit model override forwarded to the backend.
// When empty, the backend's configured default applies.
func (c *Client) WithModel(model string) *Client {
	c.model = model
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// IsConfigured returns true if the client has a backend URL.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// Chat sends the full ordered conversation plus the system instruction
// and returns the extracted answer.
//
// Classification contract:
//   - 429 responses wrap ErrRateLimited
//   - 402 responses wrap ErrQuotaExceeded
//   - other non-2xx responses yield a *BackendError
//   - a 2xx response with no extractable non-empty answer text is a
//     failure too (ErrEmptyResponse), never a success
func (c *Client) Chat(ctx context.Context, messages []Message, systemPrompt string) (*Answer, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(ChatRequest{
		Messages:     messages,
		SystemPrompt: systemPrompt,
		Model:        c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, data)
	}

	return extractAnswer(data)
}

// =============================================================================
// RESPONSE HANDLING
// =============================================================================

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// classifyStatus converts a non-2xx response into a classified error.
// The body may carry a human-readable {"error": ...} string which is
// preserved for display.
func classifyStatus(status int, body []byte) error {
	message := upstreamMessage(body)

	switch status {
	case http.StatusTooManyRequests:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrRateLimited, message)
		}
		return ErrRateLimited
	case http.StatusPaymentRequired:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, message)
		}
		return ErrQuotaExceeded
	default:
		return &BackendError{Status: status, Message: message}
	}
}

// upstreamMessage extracts the optional {"error": "..."} string from an
// error body, falling back to the raw body text.
func upstreamMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(body))
}

// extractAnswer coerces the accepted success shapes into an Answer.
//
// Accepted shapes, in order of preference:
//  1. {"response": "..."} with optional sources
//  2. {"message": "..."} with optional sources
//  3. a bare JSON string body
//
// Anything else, or an empty answer under every shape, is ErrEmptyResponse.
func extractAnswer(body []byte) (*Answer, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		content := env.Response
		if content == "" {
			content = env.Message
		}
		if content != "" {
			return &Answer{Content: content, Sources: env.Sources}, nil
		}
		return nil, ErrEmptyResponse
	}

	var raw string
	if err := json.Unmarshal(body, &raw); err == nil && raw != "" {
		return &Answer{Content: raw}, nil
	}

	return nil, ErrEmptyResponse
}
