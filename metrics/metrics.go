// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcha_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matcha_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matcha_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcha_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"route"},
	)

	// Discovery
	DiscoveryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcha_discovery_requests_total",
			Help: "Discovery requests by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	DiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matcha_discovery_duration_seconds",
			Help:    "Time spent building one discovery page",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"flow"},
	)

	// DiscoveryCandidates tracks pool size after each pipeline stage
	// (fetched, compatible, filtered).
	DiscoveryCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matcha_discovery_candidates",
			Help:    "Candidate count after each discovery stage",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11),
		},
		[]string{"flow", "stage"},
	)

	// Profile interactions
	ProfileLikes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcha_profile_likes_total",
			Help: "Like toggles by resulting action",
		},
		[]string{"action"},
	)

	ProfileViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matcha_profile_views_total",
			Help: "Recorded profile views",
		},
	)

	AvatarUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcha_avatar_uploads_total",
			Help: "Avatar upload attempts by outcome",
		},
		[]string{"outcome"},
	)

	LocationRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcha_location_refreshes_total",
			Help: "Automatic location refreshes by source",
		},
		[]string{"source"},
	)
)

// RecordAPIRequest records a finished HTTP request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// ObserveCandidates records the pool size after a discovery stage.
func ObserveCandidates(flow, stage string, n int) {
	DiscoveryCandidates.WithLabelValues(flow, stage).Observe(float64(n))
}

// RecordDiscovery records one discovery request.
func RecordDiscovery(flow string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DiscoveryRequests.WithLabelValues(flow, outcome).Inc()
	DiscoveryDuration.WithLabelValues(flow).Observe(duration.Seconds())
}

func RecordLike(liked bool) {
	if liked {
		ProfileLikes.WithLabelValues("like").Inc()
	} else {
		ProfileLikes.WithLabelValues("unlike").Inc()
	}
}
