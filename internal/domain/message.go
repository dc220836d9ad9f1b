package domain

import (
	"fmt"
	"time"
)

// WebhookSource decides where the relay takes the webhook address from.
type WebhookSource string

const (
	// WebhookSourceConfig always uses the statically configured URL.
	WebhookSourceConfig WebhookSource = "config"
	// WebhookSourceRequest requires the URL in every request payload.
	WebhookSourceRequest WebhookSource = "request"
	// WebhookSourceEither prefers the request URL and falls back to config.
	WebhookSourceEither WebhookSource = "either"
)

func ParseWebhookSource(s string) (WebhookSource, error) {
	switch WebhookSource(s) {
	case WebhookSourceConfig, WebhookSourceRequest, WebhookSourceEither:
		return WebhookSource(s), nil
	default:
		return "", fmt.Errorf("unknown webhook source %q", s)
	}
}

type SlackMessageRequest struct {
	Text       string `json:"text"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

type SlackMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const MessageSentText = "Message sent to Slack"

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MessageSentEvent is published after a message was handed to the webhook.
type MessageSentEvent struct {
	WebhookHost string    `json:"webhook_host"`
	StatusCode  int       `json:"status_code"`
	TextLength  int       `json:"text_length"`
	SentAt      time.Time `json:"sent_at"`
}

const SubjectMessageSent = "relay.message.sent"
