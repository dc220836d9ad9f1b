package ports

import (
	"context"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// WebhookClient posts a message to an incoming webhook.
// A returned error means the request never completed; any HTTP answer,
// including non-2xx, is reported through the status code.
type WebhookClient interface {
	PostMessage(ctx context.Context, webhookURL, text string) (int, error)
}

// Transcriber is a loaded speech-to-text model. It is shared by all
// requests and must be safe for concurrent use.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error)
}

// EventPublisher emits fire-and-forget domain events.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event interface{})
}
