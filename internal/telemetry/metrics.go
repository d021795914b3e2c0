package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Saga outcome counters, exposed on /metrics.
var (
	PaymentsAuthorized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_authorized_total",
		Help: "Payments authorized and committed",
	})
	PaymentsRefused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_refused_total",
		Help: "Authorizations refused by the gateway",
	})
	PaymentsCompensated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_compensated_total",
		Help: "Authorizations cancelled at the gateway after a commit failure",
	})
	PaymentsCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_captured_total",
		Help: "Payments captured",
	})
	PaymentsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_cancelled_total",
		Help: "Payments cancelled",
	})
)
