package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synergysphere_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// CacheRequests counts route-cache lookups by outcome (hit|miss|stale|bypass).
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synergysphere_route_cache_requests_total",
			Help: "Route cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// CacheStores counts responses written into the route cache.
	CacheStores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "synergysphere_route_cache_stores_total",
			Help: "Responses stored in the route cache",
		},
	)

	// CacheInvalidations counts tag invalidation markers written.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synergysphere_cache_invalidations_total",
			Help: "Invalidation markers written per tag",
		},
		[]string{"tag"},
	)

	// OTPVerifications counts OTP verification attempts by result.
	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synergysphere_otp_verifications_total",
			Help: "OTP verification attempts by result",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synergysphere_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
