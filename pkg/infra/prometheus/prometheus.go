package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

const (
	ModeInline = "inline"
	ModeManual = "manual"

	ResultDisabled   = "disabled"
	ResultBypassed   = "bypassed"
	ResultSelfTarget = "self_target"
	ResultAllowed    = "allowed"
	ResultBlocked    = "blocked"
	ResultInvalidIP  = "invalid_ip"
	ResultError      = "error"
)

var (
	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	EvaluationsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitorgate_evaluations_total",
			Help: "Visitor evaluations by mode and result",
		},
		[]string{"mode", "result"},
	)

	VerdictLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "visitorgate_verdict_latency_ms",
			Help:    "Round trip latency of the verdict service in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	ProxyFetchFailures = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "visitorgate_proxy_fetch_failures_total",
			Help: "Loopback content fetches that fell back to placeholder content",
		},
	)

	VerdictCacheLookups = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "visitorgate_verdict_cache_lookups_total",
			Help: "Verdict cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)

var initOnce sync.Once

// Initialize adds process metrics and makes the private registry the
// default gatherer for promhttp.
func Initialize() {
	initOnce.Do(func() {
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)

		prometheus.DefaultRegisterer = registry
		prometheus.DefaultGatherer = registry
	})
}

func Registry() *prometheus.Registry {
	return registry
}
