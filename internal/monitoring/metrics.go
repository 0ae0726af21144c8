package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_operations_total",
			Help: "Ticket lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_notifications_total",
			Help: "Ticket email deliveries by outcome",
		},
		[]string{"outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func TrackOperation(operation, outcome string) {
	ticketOperations.WithLabelValues(operation, outcome).Inc()
}

func TrackNotification(outcome string) {
	notifications.WithLabelValues(outcome).Inc()
}

func TrackRequest(method, route, status string, duration time.Duration) {
	requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
