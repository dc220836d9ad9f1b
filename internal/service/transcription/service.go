package transcription

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
	"github.com/seu-repo/slack-relay/internal/observability/telemetry"
	"github.com/seu-repo/slack-relay/internal/ports"
)

var tracer = otel.Tracer("github.com/seu-repo/slack-relay/internal/service/transcription")

// Config holds transcription settings
type Config struct {
	TempDir    string
	FileSuffix string
}

// Service persists uploads to a scoped temp file and runs the shared model
// on it.
type Service struct {
	config Config
	model  ports.Transcriber
	events ports.EventPublisher
	log    *zap.Logger
}

func NewService(config Config, model ports.Transcriber, events ports.EventPublisher, log *zap.Logger) *Service {
	return &Service{
		config: config,
		model:  model,
		events: events,
		log:    log,
	}
}

// Transcribe returns the text spoken in audio. The temp file backing the
// call is removed before Transcribe returns, including when the model panics.
func (s *Service) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ctx, span := tracer.Start(ctx, "transcription.Transcribe")
	defer span.End()

	if audio == nil {
		telemetry.TranscriptionsTotal.WithLabelValues(telemetry.ResultInvalid).Inc()
		return "", domain.ErrNoFileUploaded
	}
	if filename == "" {
		telemetry.TranscriptionsTotal.WithLabelValues(telemetry.ResultInvalid).Inc()
		return "", domain.ErrNoFileSelected
	}

	tmp, err := CreateTempFile(s.config.TempDir, s.config.FileSuffix, audio)
	if err != nil {
		telemetry.TranscriptionsTotal.WithLabelValues(telemetry.ResultFailed).Inc()
		s.log.Error("Failed to persist upload", zap.String("filename", filename), zap.Error(err))
		return "", domain.NewTranscriptionError(err)
	}
	defer func() {
		if rerr := tmp.Release(); rerr != nil {
			s.log.Warn("Failed to remove temp file", zap.String("path", tmp.Path()), zap.Error(rerr))
		}
	}()

	span.SetAttributes(
		attribute.String("upload.filename", filename),
		attribute.Int64("upload.bytes", tmp.Size()),
	)

	start := time.Now()
	transcript, err := s.run(ctx, tmp.Path())
	elapsed := time.Since(start)
	telemetry.TranscriptionLatency.Observe(elapsed.Seconds())

	if err != nil {
		telemetry.TranscriptionsTotal.WithLabelValues(telemetry.ResultFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		s.log.Error("Transcription failed", zap.String("filename", filename), zap.Error(err))
		return "", domain.NewTranscriptionError(err)
	}

	telemetry.TranscriptionsTotal.WithLabelValues(telemetry.ResultSuccess).Inc()
	s.log.Info("Transcription completed",
		zap.String("filename", filename),
		zap.Int64("bytes", tmp.Size()),
		zap.Duration("elapsed", elapsed),
	)

	s.events.Publish(ctx, domain.SubjectTranscriptionCompleted, domain.TranscriptionCompletedEvent{
		Filename:   filename,
		Bytes:      tmp.Size(),
		Characters: len(transcript.Text),
		Language:   transcript.Language,
		Elapsed:    elapsed,
		At:         time.Now().UTC(),
	})

	return transcript.Text, nil
}

// run invokes the model and converts a panic into an error.
func (s *Service) run(ctx context.Context, path string) (transcript *domain.Transcript, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	transcript, err = s.model.Transcribe(ctx, path)
	if err == nil && transcript == nil {
		err = fmt.Errorf("transcriber returned no result")
	}
	return transcript, err
}
