// Package metrics exports Prometheus counters for the auth flows and the
// HTTP layer.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/example/venuebook/internal/autherr"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "venuebook"

// Login attempt results.
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginLocked             = "locked"
	LoginUnverified         = "unverified"
	LoginDeactivated        = "deactivated"
)

// Metrics holds every collector the service records into.
type Metrics struct {
	// auth
	LoginAttempts *prometheus.CounterVec
	Lockouts      prometheus.Counter
	Emails        *prometheus.CounterVec
	Signups       prometheus.Counter

	// http
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg registers nothing, which is
// what tests that don't inspect metrics want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "login_attempts_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"},
		),
		Lockouts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "lockouts_total",
				Help:      "Accounts locked after repeated failed logins",
			},
		),
		Emails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "emails_total",
				Help:      "Transactional emails by kind and delivery result",
			},
			[]string{"kind", "result"},
		),
		Signups: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "signups_total",
				Help:      "Accounts created",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
	}
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// RecordEmail counts one delivery attempt of the given kind.
func (m *Metrics) RecordEmail(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.Emails.WithLabelValues(kind, result).Inc()
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// The error handler writes the response after this returns, so the
		// status has to come from err.
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}

		path := c.Route().Path
		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return autherr.StatusOf(err)
}
