// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the Dagan chat backend.
package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient spins up a stub backend and a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL).WithHTTPClient(srv.Client())
}

func TestChatNotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Chat(context.Background(), nil, "system")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChatSendsFullHistoryAndSystemPrompt(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"response": "ok"})
	})

	messages := []Message{
		{Role: "user", Content: "Bonjour"},
		{Role: "assistant", Content: "Bonjour !"},
		{Role: "user", Content: "Comment créer une entreprise ?"},
	}
	_, err := client.Chat(context.Background(), messages, "Tu es Dagan.")
	require.NoError(t, err)

	assert.Equal(t, messages, got.Messages)
	assert.Equal(t, "Tu es Dagan.", got.SystemPrompt)
}

func TestChatAcceptedResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"response key", `{"response": "Bonjour"}`, "Bonjour"},
		{"message key", `{"message": "Salut"}`, "Salut"},
		{"response preferred over message", `{"response": "a", "message": "b"}`, "a"},
		{"bare string body", `"texte brut"`, "texte brut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			answer, err := client.Chat(context.Background(), nil, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer.Content)
		})
	}
}

func TestChatEmptyResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"empty response string", `{"response": ""}`},
		{"empty bare string", `""`},
		{"unrecognized shape", `[1, 2, 3]`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			_, err := client.Chat(context.Background(), nil, "")
			assert.ErrorIs(t, err, ErrEmptyResponse)
		})
	}
}

func TestChatSourcesPassedThroughRaw(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "Bonjour", "sources": [{"url": "https://a.tg", "title": "A"}]}`))
	})

	answer, err := client.Chat(context.Background(), nil, "")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"url": "https://a.tg", "title": "A"}]`, string(answer.Sources))
}

func TestChatStatusClassification(t *testing.T) {
	t.Run("429 is rate limited", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "Limite de requêtes atteinte."}`))
		})
		_, err := client.Chat(context.Background(), nil, "")
		assert.ErrorIs(t, err, ErrRateLimited)
		assert.Contains(t, err.Error(), "Limite de requêtes")
	})

	t.Run("402 is quota exceeded", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
		})
		_, err := client.Chat(context.Background(), nil, "")
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("500 is a backend error with upstream message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "Une erreur est survenue"}`))
		})
		_, err := client.Chat(context.Background(), nil, "")

		var backendErr *BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, http.StatusInternalServerError, backendErr.Status)
		assert.Equal(t, "Une erreur est survenue", backendErr.Message)
	})
}

func TestChatContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Chat(ctx, nil, "")
	assert.Error(t, err)
}
