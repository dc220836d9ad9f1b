package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
)

// Transcriber forwards audio files to a self-hosted speech-to-text endpoint
// that accepts a multipart "file" field and answers {"text": "..."}.
type Transcriber struct {
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

type transcriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

func NewTranscriber(endpoint string, timeout time.Duration, log *zap.Logger) (*Transcriber, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("local: endpoint not configured")
	}

	log.Info("Local transcriber initialized", zap.String("endpoint", endpoint))
	return &Transcriber{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("local: open audio: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("local: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("local: write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("local: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("local: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		t.log.Error("Local transcriber error", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("local: endpoint returned status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("local: decode response: %w", err)
	}

	return &domain.Transcript{
		Text:     result.Text,
		Language: result.Language,
		Duration: result.Duration,
	}, nil
}
