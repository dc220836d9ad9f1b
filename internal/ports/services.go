package ports

import (
	"context"
	"io"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// RelayService forwards a text message to a Slack incoming webhook.
type RelayService interface {
	Send(ctx context.Context, req domain.SlackMessageRequest) error
}

// TranscriptionService turns an uploaded audio file into text.
type TranscriptionService interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
