package mocks

import (
	"context"
	"io"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// MockRelayService is a mock implementation of ports.RelayService
type MockRelayService struct {
	SendFunc func(ctx context.Context, req domain.SlackMessageRequest) error
	Requests []domain.SlackMessageRequest
}

func (m *MockRelayService) Send(ctx context.Context, req domain.SlackMessageRequest) error {
	m.Requests = append(m.Requests, req)
	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return nil
}

// MockTranscriptionService is a mock implementation of ports.TranscriptionService
type MockTranscriptionService struct {
	TranscribeFunc func(ctx context.Context, filename string, audio io.Reader) (string, error)
}

func (m *MockTranscriptionService) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, filename, audio)
	}
	return "", nil
}
