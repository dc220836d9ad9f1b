package mocks

import (
	"context"
	"net/http"
	"sync"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// MockWebhookClient is a mock implementation of ports.WebhookClient
type MockWebhookClient struct {
	PostMessageFunc func(ctx context.Context, webhookURL, text string) (int, error)

	mu    sync.Mutex
	Calls []WebhookCall
}

type WebhookCall struct {
	URL  string
	Text string
}

func (m *MockWebhookClient) PostMessage(ctx context.Context, webhookURL, text string) (int, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, WebhookCall{URL: webhookURL, Text: text})
	m.mu.Unlock()

	if m.PostMessageFunc != nil {
		return m.PostMessageFunc(ctx, webhookURL, text)
	}
	return http.StatusOK, nil
}

// MockTranscriber is a mock implementation of ports.Transcriber
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audioPath string) (*domain.Transcript, error)

	mu    sync.Mutex
	Paths []string
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	m.mu.Lock()
	m.Paths = append(m.Paths, audioPath)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}
	return &domain.Transcript{}, nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

type PublishedEvent struct {
	Subject string
	Event   interface{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, event interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{Subject: subject, Event: event})
}
