// Package metrics holds the Prometheus collectors of the app
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Registrations is labelled by outcome: created or the redirect error code
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Logins is labelled by outcome: ok or the redirect error code
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Verifications is labelled by outcome: ok or invalid_token
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_email_verifications_total",
			Help: "Email verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	// MailsSent is labelled by outcome: sent, failed or dropped
	MailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_verification_mails_total",
			Help: "Verification mails by delivery outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPRequest(method, endpoint string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}
