// ABOUTME: Chat provider contract shared by mock and real adapters
// ABOUTME: Streaming delivers chunks through a callback; a stream is finite and not restartable

package providers

import (
	"context"

	"github.com/canvasai/mixboard/backend/models"
)

// ChatRequest is the provider-facing conversation. The HTTP layer prepends
// the system prompt before it reaches an adapter.
type ChatRequest struct {
	Messages         []models.ChatMessageInput
	WebSearchEnabled bool
}

// ChatResponse is a complete, non-streamed reply.
type ChatResponse struct {
	Message string
	Usage   *models.ChatUsage
}

// ChatProvider is implemented by every chat adapter. ChatStream calls fn once
// per text chunk in order; returning an error from fn aborts the stream. The
// concatenation of all chunks equals the Chat result for the same input.
type ChatProvider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ChatStream(ctx context.Context, req ChatRequest, fn func(chunk string) error) error
}
