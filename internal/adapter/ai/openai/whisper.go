package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// WhisperConfig configures the OpenAI speech-to-text client.
type WhisperConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// WhisperTranscriber transcribes audio files with the OpenAI audio API.
// The underlying client is safe for concurrent use.
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
	log      *zap.Logger
}

// NewWhisperTranscriber builds the client once so every request shares it.
func NewWhisperTranscriber(cfg WhisperConfig, log *zap.Logger) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	log.Info("Whisper transcriber initialized", zap.String("model", model))
	return &WhisperTranscriber{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		language: cfg.Language,
		log:      log,
	}, nil
}

// Transcribe uploads the file at audioPath and returns the recognized text.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Language: w.language,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: create transcription: %w", err)
	}

	return &domain.Transcript{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
