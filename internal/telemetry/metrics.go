// Package telemetry provides application-level observability for the Friend
// Indeed service.
//
// # Prometheus Metrics Endpoint
//
// All metrics are registered against the default Prometheus registry and are
// automatically available on the side-channel HTTP server started by main.go:
//
//	GET http(s)://<host>:<FI_TELEMETRY_METRICS_PROMETHEUS_PORT>/metrics
//
// Default port: 9090. The endpoint returns data in the Prometheus text
// exposition format and is intended to be scraped every 15–60 seconds. It is
// NOT served by the Gin router, so it never competes with API traffic for the
// public ingress and is not subject to the API rate limiter.
//
// # Label Cardinality
//
// HTTP metrics use c.FullPath() (route template such as /needs/:id/claim)
// rather than the raw request URL to prevent unbounded label cardinality from
// user-supplied path segments.
package telemetry

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/friendindeed/friendindeed/internal/safego"
)

// HTTP metrics — labelled by method, route template, and status code.
//
// Example PromQL queries:
//   - Request rate (req/s, 5 m window):  rate(http_requests_total[5m])
//   - Error rate (%):                    sum(rate(http_requests_total{status=~"5.."}[5m])) / sum(rate(http_requests_total[5m])) * 100
//   - p99 latency per route:             histogram_quantile(0.99, sum by (path, le) (rate(http_request_duration_seconds_bucket[5m])))
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// Marketplace metrics — recorded by the needs service.
//
// NeedsCreatedTotal is labelled by category so organizers can see which kinds
// of help are requested most. NeedsClaimedTotal counts successful claims;
// NeedClaimConflictsTotal counts claim attempts rejected because the need was
// no longer open. A sustained non-zero conflict rate is normal (volunteers do
// race for popular needs) but a spike relative to successful claims suggests
// the frontend is showing stale lists.
//
// Example PromQL queries:
//   - Claim success ratio:  rate(needs_claimed_total[1h]) / (rate(needs_claimed_total[1h]) + rate(need_claim_conflicts_total[1h]))
//   - Most requested categories:  topk(3, sum by (category) (needs_created_total))
var (
	NeedsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "needs_created_total",
			Help: "Total number of needs created, by category.",
		},
		[]string{"category"},
	)

	NeedsClaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "needs_claimed_total",
			Help: "Total number of needs successfully claimed by a volunteer.",
		},
	)

	NeedClaimConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "need_claim_conflicts_total",
			Help: "Total number of claim attempts rejected because the need was not open.",
		},
	)
)

// DBOpenConnections is a Gauge that tracks the number of open connections
// currently held by the sql.DB connection pool. It is sampled every 30 seconds
// by StartDBStatsCollector rather than per-request to avoid the overhead of
// sql.DB.Stats().
var DBOpenConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "db_open_connections",
		Help: "Current number of open database connections in the pool.",
	},
)

// StartDBStatsCollector launches a background goroutine that samples sql.DB
// connection pool statistics every 30 seconds and updates the DBOpenConnections
// gauge. The goroutine exits cleanly when the database becomes unreachable
// (db.Ping fails), which happens automatically when the application shuts down
// and defers db.Close().
//
// Call this once, immediately after the database connection succeeds:
//
//	telemetry.StartDBStatsCollector(database.DB)
func StartDBStatsCollector(db *sql.DB) {
	safego.Go("db-stats-collector", func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := db.Ping(); err != nil {
				slog.Warn("db stats collector: database unreachable, stopping collector", "error", err)
				return
			}
			DBOpenConnections.Set(float64(db.Stats().OpenConnections))
		}
	})
}
