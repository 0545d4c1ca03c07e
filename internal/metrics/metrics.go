package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localink",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "localink",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localink",
		Name:      "booking_transitions_total",
		Help:      "Bookings that entered a status.",
	}, []string{"status"})

	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "localink",
		Name:      "ratelimit_rejections_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"scope"})
)
