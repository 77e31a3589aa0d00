package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_http_requests_total",
		Help: "HTTP requests served, by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleet_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_analytics_cache_hits_total",
		Help: "Analytics result cache hits.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_analytics_cache_misses_total",
		Help: "Analytics result cache misses.",
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_store_errors_total",
		Help: "Store operation failures, by operation.",
	}, []string{"operation"})

	TelemetryIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_telemetry_ingested_total",
		Help: "Telemetry records accepted.",
	})

	AlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_alerts_published_total",
		Help: "Alert events published to the live channel.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
