// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ============================================================================
// OPENAI UPSTREAM
// ============================================================================

// OpenAIUpstream implements Upstream using the official openai-go SDK.
type OpenAIUpstream struct {
	model string
	opts  []option.RequestOption
}

// NewOpenAIUpstream creates an upstream from an API key and default model.
func NewOpenAIUpstream(apiKey, model string) (*OpenAIUpstream, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not configured")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIUpstream{
		model: model,
		opts:  []option.RequestOption{option.WithAPIKey(apiKey)},
	}, nil
}

// WithBaseURL points the upstream at a different completion endpoint.
func (u *OpenAIUpstream) WithBaseURL(baseURL string) *OpenAIUpstream {
	u.opts = append(u.opts, option.WithBaseURL(baseURL))
	return u
}

// Complete forwards the conversation to OpenAI and returns the reply text.
func (u *OpenAIUpstream) Complete(ctx context.Context, messages []ChatMessage, systemPrompt, model string) (string, error) {
	client := openai.NewClient(u.opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	if model == "" {
		model = u.model
	}

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	})
	if err != nil {
		return "", classifyUpstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// classifyUpstreamError maps SDK errors onto the proxy's sentinel errors.
func classifyUpstreamError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrUpstreamRateLimited, err)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %v", ErrUpstreamQuota, err)
		}
	}
	return err
}
