package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seu-repo/slack-relay/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DriverNATS     = "nats"
	DriverRabbitMQ = "rabbitmq"
)

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	return load("")
}

// LoadFile is like Load but reads the given YAML file instead of searching
// the default config paths.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/app/configs")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Plain env vars used by the Docker image and the frontend dev setup
	v.BindEnv("http.port", "PORT", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("slack.webhook_url", "SLACK_WEBHOOK_URL", "APP_SLACK_WEBHOOK_URL")
	v.BindEnv("slack.webhook_source", "SLACK_WEBHOOK_SOURCE", "APP_SLACK_WEBHOOK_SOURCE")
	v.BindEnv("transcription.openai.api_key", "OPENAI_API_KEY", "APP_TRANSCRIPTION_OPENAI_API_KEY")
	v.BindEnv("transcription.local.endpoint", "LOCAL_TRANSCRIBE_ENDPOINT", "APP_TRANSCRIPTION_LOCAL_ENDPOINT")
	v.BindEnv("events.nats.url", "NATS_URL", "APP_EVENTS_NATS_URL")
	v.BindEnv("events.rabbitmq.url", "RABBITMQ_URL", "APP_EVENTS_RABBITMQ_URL")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL", "APP_LOGGING_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "slack-relay")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 5000)
	v.SetDefault("http.read_timeout", 30*time.Second)
	v.SetDefault("http.write_timeout", 120*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)

	v.SetDefault("slack.webhook_source", string(domain.WebhookSourceEither))
	v.SetDefault("slack.check_status", true)

	v.SetDefault("transcription.provider", ProviderOpenAI)
	v.SetDefault("transcription.file_suffix", ".mp3")
	v.SetDefault("transcription.openai.model", "whisper-1")
	v.SetDefault("transcription.local.timeout", 5*time.Minute)

	v.SetDefault("events.nats.max_reconnects", 10)
	v.SetDefault("events.nats.reconnect_wait", 2*time.Second)
	v.SetDefault("events.nats.timeout", 5*time.Second)

	v.SetDefault("opentelemetry.service_name", "slack-relay")
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://jaeger:14268/api/traces")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("feature_flags.transcription", true)

	v.SetDefault("limits.max_upload_size_mb", 25)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid http.port %d", c.HTTP.Port)
	}

	if _, err := domain.ParseWebhookSource(c.Slack.WebhookSource); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.FeatureFlags.Transcription {
		switch c.Transcription.Provider {
		case ProviderOpenAI, ProviderLocal:
		default:
			return fmt.Errorf("config: unknown transcription.provider %q", c.Transcription.Provider)
		}
		if strings.ContainsRune(c.Transcription.FileSuffix, filepath.Separator) {
			return fmt.Errorf("config: transcription.file_suffix must not contain a path separator")
		}
	}

	switch c.Events.Driver {
	case "", DriverNATS, DriverRabbitMQ:
	default:
		return fmt.Errorf("config: unknown events.driver %q", c.Events.Driver)
	}

	if c.Limits.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("config: limits.max_upload_size_mb must be positive")
	}

	return nil
}
