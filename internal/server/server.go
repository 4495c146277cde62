// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/dagan-tui/internal/config"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageCount is the maximum number of messages in a request.
	MaxMessageCount = 100

	// MaxMessageLength is the maximum length of a single message.
	MaxMessageLength = 100000

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second
)

// French client-facing error strings. The TUI shows these verbatim, so
// they must stay byte-identical across the proxy and any other deployment.
const (
	errRateLimited   = "Limite de requêtes atteinte. Veuillez réessayer dans quelques instants."
	errQuotaExceeded = "Crédits insuffisants. Veuillez contacter l'administrateur."
	errGeneric       = "Une erreur est survenue"
)

// Upstream errors recognized by the chat handler.
var (
	// ErrUpstreamRateLimited indicates the provider returned 429.
	ErrUpstreamRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamQuota indicates the provider returned 402 (billing).
	ErrUpstreamQuota = errors.New("upstream quota exceeded")
)

// validRoles defines the set of acceptable message roles.
var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// ============================================================================
// WIRE TYPES
// ============================================================================

// ChatMessage represents one message in the forwarded conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body accepted by POST /chat.
type ChatRequest struct {
	Messages     []ChatMessage `json:"messages"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
	Model        string        `json:"model,omitempty"`
}

// ChatResponse is the success body returned by POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the failure body returned by any endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// validateMessages validates that all message roles are acceptable.
func validateMessages(messages []ChatMessage) error {
	for i, msg := range messages {
		if !validRoles[msg.Role] {
			return fmt.Errorf("invalid role '%s' at message %d: must be one of user, assistant, system", msg.Role, i)
		}
	}
	return nil
}

// ============================================================================
// UPSTREAM INTERFACE
// ============================================================================

// Upstream is the completion provider behind the proxy.
type Upstream interface {
	// Complete sends the conversation with the system prompt prepended
	// and returns the assistant's reply as plain text.
	Complete(ctx context.Context, messages []ChatMessage, systemPrompt, model string) (string, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the chat proxy HTTP server.
type Server struct {
	cfg      *config.Config
	upstream Upstream
	logger   *zap.Logger
	router   *http.ServeMux
	server   *http.Server
	limiter  *clientLimiter

	mu sync.RWMutex
}

// New creates a Server from the given config and upstream.
func New(cfg *config.Config, up Upstream, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		upstream: up,
		logger:   logger,
		router:   http.NewServeMux(),
		limiter:  newClientLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}

	s.setupRoutes()
	return s
}

// SetSystemPrompt swaps the default system prompt. Used by the config
// watcher for hot reload in serve mode.
func (s *Server) SetSystemPrompt(prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Backend.SystemPrompt = prompt
}

// defaultSystemPrompt returns the prompt applied when a request carries none.
func (s *Server) defaultSystemPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.cfg.Backend.SystemPrompt; p != "" {
		return p
	}
	return config.DefaultSystemPrompt
}

// Handler returns the full middleware-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	chain := Chain(
		RecoveryMiddleware(s.logger),
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.cfg.Server.AllowedOrigin),
		RateLimitMiddleware(s.limiter, s.logger),
	)
	return chain(s.router)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /chat", s.handleChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		s.logger.Warn("invalid request body", zap.Error(err))
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Request must contain at least one message")
		return
	}
	if len(req.Messages) > MaxMessageCount {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many messages: maximum is %d", MaxMessageCount))
		return
	}
	if err := validateMessages(req.Messages); err != nil {
		s.logger.Warn("message validation failed", zap.Error(err))
		s.writeError(w, http.StatusBadRequest, "Invalid message format. Messages must have valid roles (user, assistant, system)")
		return
	}
	for i, msg := range req.Messages {
		if len(msg.Content) > MaxMessageLength {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message %d exceeds maximum length of %d", i, MaxMessageLength))
			return
		}
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = s.defaultSystemPrompt()
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Server.Model
	}

	start := time.Now()
	reply, err := s.upstream.Complete(r.Context(), req.Messages, systemPrompt, model)
	if err != nil {
		s.logger.Error("upstream request failed",
			zap.Error(err),
			zap.Int("messages", len(req.Messages)),
			zap.String("model", model),
		)
		switch {
		case errors.Is(err, ErrUpstreamRateLimited):
			s.writeError(w, http.StatusTooManyRequests, errRateLimited)
		case errors.Is(err, ErrUpstreamQuota):
			s.writeError(w, http.StatusPaymentRequired, errQuotaExceeded)
		default:
			s.writeError(w, http.StatusInternalServerError, errGeneric)
		}
		return
	}

	s.logger.Info("upstream request complete",
		zap.Int("messages", len(req.Messages)),
		zap.String("model", model),
		zap.Duration("latency", time.Since(start)),
	)

	s.writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server listening", zap.String("addr", s.cfg.Server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
