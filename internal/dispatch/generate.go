// Package dispatch serializes all generative backend calls through a
// single FIFO queue with global rate limiting and retry/fallback.
package dispatch

import (
	"context"

	"github.com/aethery0y/vryzen/internal/conversation"
)

// GenerateRequest describes one generation call to the backend.
type GenerateRequest struct {
	// Message is the user's message text.
	Message string

	// History is the bounded conversation context conditioning the call.
	// Ignored when Stateless is set.
	History []conversation.Turn

	// Stateless selects the fallback generation mode: no conversation
	// history, with an explicit directive to answer directly without
	// self-introduction. Used on retry attempts after the primary
	// conversational path has failed once.
	Stateless bool
}

// Generator is the contract for the generative backend. Implementations
// must classify quota failures so errors.Is(err, ErrRateLimited) holds,
// since the retry controller and the caller-facing messaging distinguish
// rate limiting from other backend failures.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
