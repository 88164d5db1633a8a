package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the panel's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "panel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	// AnalyticsSamples counts collector outcomes per server: recorded,
	// offline or failed.
	AnalyticsSamples = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panel",
			Subsystem: "analytics",
			Name:      "samples_total",
			Help:      "Analytics collection outcomes per server.",
		},
		[]string{"result"},
	)

	CouponsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "panel",
			Subsystem: "coupons",
			Name:      "expired_total",
			Help:      "Coupons flagged as expired by the expiry job.",
		},
	)

	Deployments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panel",
			Subsystem: "store",
			Name:      "deployments_total",
			Help:      "Store deployments by outcome.",
		},
		[]string{"result"},
	)

	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panel",
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notifications delivered by channel and outcome.",
		},
		[]string{"channel", "result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		AnalyticsSamples,
		CouponsExpired,
		Deployments,
		Notifications,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
