// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation state and dispatches user
// questions to the chat backend.
package session

import (
	"errors"

	"github.com/jeranaias/dagan-tui/internal/backend"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// ErrorKind classifies a dispatch failure for presentation.
// EmptyInput and AlreadyPending conditions are not represented here:
// they decline silently and produce no error value at all.
type ErrorKind int

const (
	// ErrorUpstream covers transport failures, missing backend
	// configuration, and any unrecognized upstream status.
	ErrorUpstream ErrorKind = iota
	// ErrorEmptyResponse means the backend returned no usable answer text.
	ErrorEmptyResponse
	// ErrorRateLimited means the upstream returned HTTP 429.
	ErrorRateLimited
	// ErrorQuotaExceeded means the upstream returned HTTP 402.
	ErrorQuotaExceeded
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorEmptyResponse:
		return "EmptyResponse"
	case ErrorRateLimited:
		return "RateLimited"
	case ErrorQuotaExceeded:
		return "QuotaExceeded"
	default:
		return "UpstreamFailure"
	}
}

// User-facing guidance per classification. Rate-limit and quota cases
// get distinct wording; everything else falls back to the raw upstream
// message or the generic default.
const (
	msgRateLimited   = "Limite de requêtes atteinte. Réessayez dans quelques instants."
	msgQuotaExceeded = "Crédits insuffisants. Veuillez contacter l'administrateur."
	msgEmptyResponse = "Réponse vide du serveur. Vérifiez la configuration du service."
	msgGeneric       = "Une erreur est survenue lors de l'envoi du message."
)

// ClassifiedError is the single error value produced by a failed
// dispatch. Message is ready for direct display to the user.
type ClassifiedError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// classify converts a backend failure into a ClassifiedError.
func classify(err error) *ClassifiedError {
	switch {
	case errors.Is(err, backend.ErrRateLimited):
		return &ClassifiedError{Kind: ErrorRateLimited, Message: msgRateLimited, Err: err}
	case errors.Is(err, backend.ErrQuotaExceeded):
		return &ClassifiedError{Kind: ErrorQuotaExceeded, Message: msgQuotaExceeded, Err: err}
	case errors.Is(err, backend.ErrEmptyResponse):
		return &ClassifiedError{Kind: ErrorEmptyResponse, Message: msgEmptyResponse, Err: err}
	}

	// Other upstream failures surface the backend's human-readable
	// message when it carries one.
	var backendErr *backend.BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return &ClassifiedError{Kind: ErrorUpstream, Message: backendErr.Message, Err: err}
	}
	return &ClassifiedError{Kind: ErrorUpstream, Message: msgGeneric, Err: err}
}
