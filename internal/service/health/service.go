package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse is the liveness body. It is always {"status":"healthy"}.
type HealthResponse struct {
	Status Status `json:"status"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks
type Service struct {
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

// NewService creates a new health service
func NewService(version string, log *zap.Logger) *Service {
	return &Service{
		startTime: time.Now(),
		version:   version,
		checkers:  make(map[string]Checker),
		log:       log,
	}
}

// RegisterChecker adds a readiness check
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health is the liveness probe. It has no inputs and no side effects.
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{Status: StatusHealthy}
}

// Ready runs every registered checker with the caller's context.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := &ReadyResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    make(map[string]CheckResult, len(s.checkers)),
	}

	for name, check := range s.checkers {
		start := time.Now()
		result := check(ctx)
		result.Name = name
		result.Duration = time.Since(start)
		result.Timestamp = start
		resp.Checks[name] = result

		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}

	return resp
}

// Static returns a checker that always reports the given status.
func Static(status Status, message string) Checker {
	return func(ctx context.Context) CheckResult {
		return CheckResult{Status: status, Message: message}
	}
}
