package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Accounts and graph
	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total registered users",
		},
	)
	GraphChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationship_changes_total",
			Help: "Follow and unfollow operations",
		},
		[]string{"action"}, // follow|unfollow
	)
	FeedLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_query_seconds",
			Help:    "Time spent building one feed page.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the default registry.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal, RequestLatency)
	prometheus.MustRegister(UsersRegistered, GraphChanges, FeedLatency)
	prometheus.MustRegister(WorkerQueueDepth)
}
