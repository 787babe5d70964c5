package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorconnect_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tutorconnect_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Bookings counts booking attempts by outcome: created, conflict, error.
	Bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tutorconnect_bookings_total",
		Help: "Session booking attempts by outcome",
	}, []string{"outcome"})

	SlotResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tutorconnect_slot_resolve_duration_seconds",
		Help:    "Time to resolve bookable slots for one request",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	SlotsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tutorconnect_slots_returned",
		Help:    "Number of bookable slots returned per request",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tutorconnect_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
