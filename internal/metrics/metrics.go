// Package metrics wires the Prometheus collectors exposed on
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the application collectors. A single instance is
// created at startup and shared by the allocator, the sweeper and the
// HTTP layer.
type Metrics struct {
	ReservationsCreated   prometheus.Counter
	ReservationsRejected  prometheus.Counter
	ReservationsCancelled prometheus.Counter
	SweepCompleted        prometheus.Counter
	HTTPRequests          *prometheus.CounterVec
	HTTPDuration          *prometheus.HistogramVec
}

// New registers the collectors on reg and returns them. Passing a
// fresh registry in tests keeps runs independent.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReservationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "reservations_created_total",
			Help: "Reservations successfully booked.",
		}),
		ReservationsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "reservations_rejected_full_total",
			Help: "Reservation attempts rejected because the slot was full.",
		}),
		ReservationsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "reservations_cancelled_total",
			Help: "Reservations cancelled by customers or admins.",
		}),
		SweepCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sweep_completed_total",
			Help: "Reservations auto-completed by the periodic sweep.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
