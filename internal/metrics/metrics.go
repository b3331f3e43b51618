package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "bookings_created_total",
			Help:      "Bookings accepted in WAITING status.",
		},
	)

	bookingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "booking_decisions_total",
			Help:      "Owner decisions by resulting status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingDecisions)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncBookingDecision(status string) {
	bookingDecisions.WithLabelValues(status).Inc()
}
