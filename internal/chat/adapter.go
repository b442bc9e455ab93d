package chat

import (
	"context"

	"pooly/internal/catalog"
	"pooly/internal/memory"
	"pooly/internal/notify"
)

// Adapter abstracts the language model provider.
type Adapter interface {
	// Complete returns the next assistant message for history, which ends
	// with the current user message.
	Complete(ctx context.Context, systemPrompt string, history []memory.Message) (string, error)
}

// SessionStore persists conversation history.
type SessionStore interface {
	Load(ctx context.Context) *memory.Memory
	Commit(ctx context.Context, turn memory.Turn) (*memory.Session, error)
}

// CatalogSource provides the catalog text.
type CatalogSource interface {
	EnsureText(ctx context.Context) (string, bool)
	Regenerate(ctx context.Context) (catalog.Generated, error)
}

// Notifier is the best-effort side channel fired by contact triggers.
type Notifier = notify.Notifier
