package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate and latency per route.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Advice pipeline outcomes. Hit rate = hits/(hits+misses).
	AdviceRequestsTotal  prometheus.Counter
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	CacheWriteErrorsTotal prometheus.Counter

	// Soft-dependency degradations. A rising rate means an upstream outage
	// is being absorbed by fallbacks.
	RetrievalFallbacksTotal  prometheus.Counter
	GenerationFallbacksTotal prometheus.Counter
	MockReadingsTotal        prometheus.Counter

	// Ingestion volume.
	GuidelinePagesIngestedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	AdviceRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adviceRequestsTotal",
		Help: "Total advice pipeline executions",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adviceCacheHitsTotal",
		Help: "Advice cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adviceCacheMissesTotal",
		Help: "Advice cache misses",
	})
	CacheWriteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adviceCacheWriteErrorsTotal",
		Help: "Advice cache writes dropped after an error",
	})
	RetrievalFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retrievalFallbacksTotal",
		Help: "Guideline retrievals that degraded to an empty snippet set",
	})
	GenerationFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "generationFallbacksTotal",
		Help: "Generations that degraded to the deterministic template",
	})
	MockReadingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mockReadingsTotal",
		Help: "Air quality lookups answered with the synthetic mock reading",
	})
	GuidelinePagesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guidelinePagesIngestedTotal",
		Help: "Guideline pages embedded and stored",
	})

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AdviceRequestsTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		CacheWriteErrorsTotal,
		RetrievalFallbacksTotal,
		GenerationFallbacksTotal,
		MockReadingsTotal,
		GuidelinePagesIngestedTotal,
	)
}

// Handler serves the metrics registry; mount it with gin.WrapH.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// MetricsMiddleware records request count and latency per route. The route
// template (not the raw path) is used so path parameters do not explode the
// label space.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
