package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haiku_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// Admission metrics
	GateDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_gate_denials_total",
			Help: "Requests denied by the admission gate",
		},
		[]string{"reason"},
	)

	// Business metrics
	Generations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_generations_total",
			Help: "Haiku generation attempts",
		},
		[]string{"result"}, // "ok" or "failed"
	)

	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "haiku_completion_duration_seconds",
			Help:    "Completion service call latency",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		},
	)

	MediaUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_media_uploads_total",
			Help: "Media uploads to content-addressed storage",
		},
		[]string{"result"},
	)

	Mints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_mints_total",
			Help: "Ledger mutations recording a haiku",
		},
		[]string{"result"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	BlockedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "haiku_blocked_requests_total",
			Help: "Requests refused because the address or account is blocked",
		},
		[]string{"subject"},
	)

	// Infrastructure metrics
	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haiku_rpc_duration_seconds",
			Help:    "Ledger JSON-RPC latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "haiku_store_latency_seconds",
			Help:    "Mint audit log query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
		[]string{"operation"},
	)
)
