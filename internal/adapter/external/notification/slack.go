package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/slack-go/slack"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerSettings configures the optional circuit breaker around webhook calls.
type BreakerSettings struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
}

// SlackWebhookAdapter posts messages to Slack incoming webhooks
type SlackWebhookAdapter struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

var errUpstream = errors.New("slack: upstream error")

// NewSlackWebhookAdapter creates a webhook adapter. A zero timeout leaves the
// HTTP client on its defaults.
func NewSlackWebhookAdapter(timeout time.Duration, breaker BreakerSettings, log *zap.Logger) *SlackWebhookAdapter {
	a := &SlackWebhookAdapter{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}

	if breaker.Enabled {
		a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "slack-webhook",
			MaxRequests: breaker.MaxRequests,
			Interval:    breaker.Interval,
			Timeout:     breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= breaker.FailureThreshold
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return a
}

// PostMessage sends {"text": text} to webhookURL and returns the upstream
// status code. The request is made exactly once.
func (a *SlackWebhookAdapter) PostMessage(ctx context.Context, webhookURL, text string) (int, error) {
	if a.breaker == nil {
		return a.post(ctx, webhookURL, text)
	}

	result, err := a.breaker.Execute(func() (interface{}, error) {
		code, err := a.post(ctx, webhookURL, text)
		if err != nil {
			return code, err
		}
		if code >= http.StatusInternalServerError {
			return code, errUpstream
		}
		return code, nil
	})
	if errors.Is(err, errUpstream) {
		return result.(int), nil
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			a.log.Warn("Circuit breaker open, webhook call blocked", zap.String("host", hostOf(webhookURL)))
		}
		return 0, err
	}
	return result.(int), nil
}

func (a *SlackWebhookAdapter) post(ctx context.Context, webhookURL, text string) (int, error) {
	host := hostOf(webhookURL)

	err := slack.PostWebhookCustomHTTPContext(ctx, webhookURL, a.httpClient, &slack.WebhookMessage{Text: text})
	if err == nil {
		a.log.Info("Slack message sent", zap.String("host", host))
		return http.StatusOK, nil
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		a.log.Warn("Slack webhook answered with non-OK status",
			zap.String("host", host),
			zap.Int("status", statusErr.Code),
		)
		return statusErr.Code, nil
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		a.log.Warn("Slack webhook rate limited",
			zap.String("host", host),
			zap.Duration("retry_after", rateErr.RetryAfter),
		)
		return http.StatusTooManyRequests, nil
	}

	// slack-go parses Retry-After on 429 and fails when the header is missing
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		a.log.Warn("Slack webhook rate limited without Retry-After", zap.String("host", host))
		return http.StatusTooManyRequests, nil
	}

	err = redactURL(err, host)
	a.log.Error("Failed to send Slack message", zap.String("host", host), zap.Error(err))
	return 0, err
}

// redactURL drops the webhook path from transport errors. The path carries
// the webhook token.
func redactURL(err error, host string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("slack webhook %s: %s: %w", host, urlErr.Op, urlErr.Err)
	}
	return err
}

// hostOf keeps webhook secrets out of the logs.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
