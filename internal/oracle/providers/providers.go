// File path: internal/oracle/providers/providers.go
package providers

import "context"

// Message is one turn of a chat exchange with a model backend.
type Message struct {
	Role    string
	Content string
}

// Provider abstracts the chat-completion backend used by the judge.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}
