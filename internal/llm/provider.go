// Package llm wraps the chat-completion backends the assistant can talk to.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the factory when no provider is selected.
var ErrNotConfigured = errors.New("no chat provider configured")

// Provider is a chat-completion backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}
