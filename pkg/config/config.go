package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Slack          SlackConfig          `mapstructure:"slack"`
	Transcription  TranscriptionConfig  `mapstructure:"transcription"`
	Events         EventsConfig         `mapstructure:"events"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	FeatureFlags   FeatureFlagsConfig   `mapstructure:"feature_flags"`
	Limits         LimitsConfig         `mapstructure:"limits"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SlackConfig controls where relayed messages go.
// WebhookSource is one of "config", "request" or "either".
type SlackConfig struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	WebhookSource string        `mapstructure:"webhook_source"`
	CheckStatus   bool          `mapstructure:"check_status"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type TranscriptionConfig struct {
	Provider   string                 `mapstructure:"provider"`
	TempDir    string                 `mapstructure:"temp_dir"`
	FileSuffix string                 `mapstructure:"file_suffix"`
	OpenAI     OpenAITranscribeConfig `mapstructure:"openai"`
	Local      LocalTranscribeConfig  `mapstructure:"local"`
}

type OpenAITranscribeConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

type LocalTranscribeConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// EventsConfig selects the broker for fire-and-forget events.
// An empty Driver disables publishing.
type EventsConfig struct {
	Driver   string         `mapstructure:"driver"`
	NATS     NATSConfig     `mapstructure:"nats"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

type FeatureFlagsConfig struct {
	Transcription bool `mapstructure:"transcription"`
}

type LimitsConfig struct {
	MaxUploadSizeMB int `mapstructure:"max_upload_size_mb"`
}

// BodyLimit returns the request body limit in bytes.
func (l LimitsConfig) BodyLimit() int {
	return l.MaxUploadSizeMB * 1024 * 1024
}
