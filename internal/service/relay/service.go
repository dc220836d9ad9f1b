package relay

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/domain"
	"github.com/seu-repo/slack-relay/internal/observability/telemetry"
	"github.com/seu-repo/slack-relay/internal/ports"
)

var tracer = otel.Tracer("github.com/seu-repo/slack-relay/internal/service/relay")

// Config holds relay settings
type Config struct {
	// WebhookURL is the statically configured destination, may be empty.
	WebhookURL string
	Source     domain.WebhookSource
	// CheckStatus reports non-2xx webhook answers as delivery failures.
	// When false every completed call counts as sent.
	CheckStatus bool
}

// Service relays text messages to a Slack incoming webhook.
// Delivery is at most once: nothing is retried.
type Service struct {
	config Config
	client ports.WebhookClient
	events ports.EventPublisher
	log    *zap.Logger
}

func NewService(config Config, client ports.WebhookClient, events ports.EventPublisher, log *zap.Logger) *Service {
	if config.Source == "" {
		config.Source = domain.WebhookSourceEither
	}
	return &Service{
		config: config,
		client: client,
		events: events,
		log:    log,
	}
}

// Send validates req and posts its text to the resolved webhook.
func (s *Service) Send(ctx context.Context, req domain.SlackMessageRequest) error {
	ctx, span := tracer.Start(ctx, "relay.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if req.Text == "" {
		telemetry.RelayMessagesTotal.WithLabelValues(telemetry.ResultInvalid).Inc()
		return domain.ErrTextRequired
	}

	webhookURL, err := s.resolveWebhook(req.WebhookURL)
	if err != nil {
		telemetry.RelayMessagesTotal.WithLabelValues(telemetry.ResultInvalid).Inc()
		return err
	}

	start := time.Now()
	code, err := s.client.PostMessage(ctx, webhookURL, req.Text)
	telemetry.RelayLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		telemetry.RelayMessagesTotal.WithLabelValues(telemetry.ResultFailed).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook transport failure")
		s.log.Error("Webhook call failed", zap.String("host", hostOf(webhookURL)))
		return domain.NewTransportError(err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", code))

	if s.config.CheckStatus && !isSuccess(code) {
		telemetry.RelayMessagesTotal.WithLabelValues(telemetry.ResultRejected).Inc()
		span.SetStatus(codes.Error, "webhook rejected message")
		s.log.Warn("Webhook rejected message", zap.Int("status", code))
		return domain.NewDeliveryError(code)
	}

	telemetry.RelayMessagesTotal.WithLabelValues(telemetry.ResultSent).Inc()

	s.events.Publish(ctx, domain.SubjectMessageSent, domain.MessageSentEvent{
		WebhookHost: hostOf(webhookURL),
		StatusCode:  code,
		TextLength:  len(req.Text),
		SentAt:      time.Now().UTC(),
	})

	return nil
}

// WebhookConfigured reports whether Send can succeed without a webhook URL
// in the request payload.
func (s *Service) WebhookConfigured() bool {
	return s.config.Source != domain.WebhookSourceRequest && s.config.WebhookURL != ""
}

// Source returns the configured webhook source.
func (s *Service) Source() domain.WebhookSource {
	return s.config.Source
}

func (s *Service) resolveWebhook(fromRequest string) (string, error) {
	var webhookURL string

	switch s.config.Source {
	case domain.WebhookSourceConfig:
		webhookURL = s.config.WebhookURL
	case domain.WebhookSourceRequest:
		webhookURL = fromRequest
	default:
		webhookURL = fromRequest
		if webhookURL == "" {
			webhookURL = s.config.WebhookURL
		}
	}

	if webhookURL == "" {
		return "", domain.ErrWebhookURLRequired
	}
	return webhookURL, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
