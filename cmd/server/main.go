package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/adapter/ai/local"
	"github.com/seu-repo/slack-relay/internal/adapter/ai/openai"
	"github.com/seu-repo/slack-relay/internal/adapter/external/notification"
	"github.com/seu-repo/slack-relay/internal/adapter/http/fiber/server"
	"github.com/seu-repo/slack-relay/internal/adapter/queue"
	"github.com/seu-repo/slack-relay/internal/domain"
	"github.com/seu-repo/slack-relay/internal/observability/telemetry"
	"github.com/seu-repo/slack-relay/internal/ports"
	"github.com/seu-repo/slack-relay/internal/service/health"
	"github.com/seu-repo/slack-relay/internal/service/relay"
	"github.com/seu-repo/slack-relay/internal/service/transcription"
	"github.com/seu-repo/slack-relay/pkg/config"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting slack-relay",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(
			cfg.OpenTelemetry.ServiceName,
			cfg.App.Version,
			cfg.OpenTelemetry.Jaeger.Endpoint,
			cfg.OpenTelemetry.Jaeger.SamplerParam,
		)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize Event Queue (optional)
	mq, err := newMessageQueue(cfg.Events, logger)
	if err != nil {
		logger.Fatal("Failed to connect to event broker", zap.Error(err))
	}
	if mq != nil {
		defer mq.Close()
	}
	events := queue.NewEventPublisher(mq, logger)

	// 5. Initialize Slack Relay
	source, _ := domain.ParseWebhookSource(cfg.Slack.WebhookSource)
	webhookClient := notification.NewSlackWebhookAdapter(cfg.Slack.Timeout, notification.BreakerSettings{
		Enabled:          cfg.CircuitBreaker.Enabled,
		MaxRequests:      uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
	}, logger)
	relayService := relay.NewService(relay.Config{
		WebhookURL:  cfg.Slack.WebhookURL,
		Source:      source,
		CheckStatus: cfg.Slack.CheckStatus,
	}, webhookClient, events, logger)

	if !relayService.WebhookConfigured() && source != domain.WebhookSourceRequest {
		logger.Warn("SLACK_WEBHOOK_URL is not set, messages need webhook_url in the request",
			zap.String("webhook_source", string(source)),
		)
	}

	// 6. Load Transcription Model (once, shared by all requests)
	var transcriptionService ports.TranscriptionService
	if cfg.FeatureFlags.Transcription {
		model, err := newTranscriber(cfg.Transcription, logger)
		if err != nil {
			logger.Fatal("Failed to load transcription model", zap.Error(err))
		}
		transcriptionService = transcription.NewService(transcription.Config{
			TempDir:    cfg.Transcription.TempDir,
			FileSuffix: cfg.Transcription.FileSuffix,
		}, model, events, logger)
	} else {
		logger.Info("Transcription disabled by feature flag")
	}

	// 7. Health Checks
	healthService := health.NewService(cfg.App.Version, logger)
	healthService.RegisterChecker("webhook", webhookChecker(relayService))
	healthService.RegisterChecker("transcriber", transcriberChecker(cfg))

	// 8. Initialize Fiber HTTP Server
	app := server.New(server.Deps{
		Config:        cfg,
		Relay:         relayService,
		Transcription: transcriptionService,
		Health:        healthService,
		Log:           logger,
	})

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newTranscriber(cfg config.TranscriptionConfig, logger *zap.Logger) (ports.Transcriber, error) {
	switch cfg.Provider {
	case config.ProviderLocal:
		return local.NewTranscriber(cfg.Local.Endpoint, cfg.Local.Timeout, logger)
	default:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set; set it, use transcription.provider=%s, or set APP_FEATURE_FLAGS_TRANSCRIPTION=false", config.ProviderLocal)
		}
		return openai.NewWhisperTranscriber(openai.WhisperConfig{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.OpenAI.Language,
		}, logger)
	}
}

func newMessageQueue(cfg config.EventsConfig, logger *zap.Logger) (queue.MessageQueue, error) {
	switch cfg.Driver {
	case config.DriverNATS:
		return queue.NewNATSQueue(cfg.NATS.URL, queue.NATSOptions{
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Timeout:       cfg.NATS.Timeout,
		}, logger)
	case config.DriverRabbitMQ:
		return queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
	default:
		return nil, nil
	}
}

func webhookChecker(relayService *relay.Service) health.Checker {
	if relayService.Source() == domain.WebhookSourceRequest {
		return health.Static(health.StatusHealthy, "webhook taken from each request")
	}
	if !relayService.WebhookConfigured() {
		if relayService.Source() == domain.WebhookSourceEither {
			return health.Static(health.StatusDegraded, "SLACK_WEBHOOK_URL not set")
		}
		return health.Static(health.StatusUnhealthy, "SLACK_WEBHOOK_URL not set")
	}
	return health.Static(health.StatusHealthy, "configured")
}

func transcriberChecker(cfg *config.Config) health.Checker {
	if !cfg.FeatureFlags.Transcription {
		return health.Static(health.StatusHealthy, "disabled")
	}
	return health.Static(health.StatusHealthy, cfg.Transcription.Provider+" loaded")
}
