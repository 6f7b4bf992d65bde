// Package completion abstracts the chat completion providers the pipeline
// delegates to for summarization and answering.
package completion

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content string
	Tokens  int
}

type Client interface {
	Chat(ctx context.Context, messages []Message, maxTokens int) (*Response, error)
}
