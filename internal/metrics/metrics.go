// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Flow names.
const (
	FlowRegister       = "register"
	FlowLogin          = "login"
	FlowForgotPassword = "forgot_password"
	FlowResetPassword  = "reset_password"
	FlowMe             = "me"
)

// Outcome values for auth request metrics.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeConflict           = "conflict"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeNotFound           = "not_found"
	OutcomeTokenExpired       = "token_expired"
	OutcomeTokenInvalid       = "token_invalid"
	OutcomeError              = "error"
)

type Metrics struct {
	AuthRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. It panics if
// registration fails, following the prometheus convention.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AuthRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authd_auth_requests_total",
				Help: "Total number of auth flow requests by outcome",
			},
			[]string{"flow", "outcome"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		gatherer: reg,
	}
	reg.MustRegister(m.AuthRequests, m.HTTPDuration)
	return m
}

func (m *Metrics) RecordAuth(flow, outcome string) {
	m.AuthRequests.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.HTTPDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
