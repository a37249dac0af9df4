// Package llm wraps the text-completion service the interviewer, note-taker
// and persona agents run on. The model is opaque to this codebase: one call
// in, one text reply out, no retry policy.
package llm

import "context"

type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

type Client interface {
	// Complete sends the system prompt and message history and returns the
	// model's text reply. A failed call fails the request; callers decide
	// whether the failure is fatal (chat reply) or swallowed (snapshot).
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}
