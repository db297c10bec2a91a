package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/xavierca1/quote-payments/internal/logger"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker is satisfied by *queue.RabbitMQ.
type HealthChecker interface {
	Healthy() bool
}

// ConfigChecker is satisfied by *stripe.Client.
type ConfigChecker interface {
	Configured() bool
}

const (
	depHealthy       = "healthy"
	depUnhealthy     = "unhealthy"
	depConfigured    = "configured"
	depNotConfigured = "not configured"
)

type HealthHandler struct {
	DB       Pinger
	RabbitMQ HealthChecker
	Stripe   ConfigChecker
	Version  string
	started  time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler accepts nil for dependencies that are not configured.
func NewHealthHandler(db Pinger, rabbitMQ HealthChecker, stripe ConfigChecker, version string) *HealthHandler {
	return &HealthHandler{
		DB:       db,
		RabbitMQ: rabbitMQ,
		Stripe:   stripe,
		Version:  version,
		started:  time.Now(),
	}
}

// Handle serves GET /health. Only an unreachable database or broker makes
// the service degraded; missing optional dependencies do not.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := map[string]string{
		"database": h.databaseStatus(r.Context()),
		"rabbitmq": h.rabbitStatus(),
		"stripe":   h.stripeStatus(),
	}

	resp := HealthResponse{
		Status:       "healthy",
		Version:      h.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Dependencies: deps,
	}
	code := http.StatusOK
	for name, status := range deps {
		if status == depUnhealthy {
			logger.Warnw("health check failed", "dependency", name)
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

func (h *HealthHandler) databaseStatus(ctx context.Context) string {
	if h.DB == nil {
		return depNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		logger.Warnw("database ping failed", "error", err)
		return depUnhealthy
	}
	return depHealthy
}

func (h *HealthHandler) rabbitStatus() string {
	switch {
	case h.RabbitMQ == nil:
		return depNotConfigured
	case h.RabbitMQ.Healthy():
		return depHealthy
	default:
		return depUnhealthy
	}
}

func (h *HealthHandler) stripeStatus() string {
	if h.Stripe != nil && h.Stripe.Configured() {
		return depConfigured
	}
	return depNotConfigured
}
