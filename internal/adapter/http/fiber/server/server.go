package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/slack-relay/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/slack-relay/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/slack-relay/internal/ports"
	"github.com/seu-repo/slack-relay/internal/service/health"
	"github.com/seu-repo/slack-relay/pkg/config"
)

// Deps are the components the HTTP layer routes to.
// Transcription is nil when the feature is switched off.
type Deps struct {
	Config        *config.Config
	Relay         ports.RelayService
	Transcription ports.TranscriptionService
	Health        *health.Service
	Log           *zap.Logger
}

// New builds the Fiber app with middleware and all routes mounted.
func New(d Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Limits.BodyLimit(),
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(d.Log),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(d.Log))
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	health.NewFiberHandler(d.Health).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	api := app.Group("/api")

	slackHandler := handlers.NewSlackHandler(d.Relay, d.Log)
	api.Post("/slack-message", slackHandler.SendMessage)

	if d.Transcription != nil {
		transcribeHandler := handlers.NewTranscribeHandler(d.Transcription, d.Log)
		api.Post("/transcribe", transcribeHandler.Transcribe)
	}

	return app
}
