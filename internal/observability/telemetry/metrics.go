package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relay
	RelayMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_relay_messages_total",
		Help: "Messages handled by the Slack relay, by outcome",
	}, []string{"result"})

	RelayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slack_relay_webhook_latency_seconds",
		Help:    "Latency of outbound webhook calls",
		Buckets: prometheus.DefBuckets,
	})

	// Transcription
	TranscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_relay_transcriptions_total",
		Help: "Transcription requests, by outcome",
	}, []string{"result"})

	TranscriptionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slack_relay_transcription_latency_seconds",
		Help:    "Time spent in the speech-to-text model",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	TempFilesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slack_relay_temp_files_active",
		Help: "Upload temp files that have not been removed yet",
	})

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_relay_http_requests_total",
		Help: "HTTP requests served",
	}, []string{"method", "route", "status"})
)

const (
	ResultSent     = "sent"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultInvalid  = "invalid"
	ResultSuccess  = "success"
)
