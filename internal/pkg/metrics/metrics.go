package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fadepin",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fadepin",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Marker lifecycle metrics
	MarkersAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "markers",
		Name:      "added_total",
		Help:      "Total markers placed by users",
	}, []string{"type"})

	MarkersRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "markers",
		Name:      "removed_total",
		Help:      "Total markers removed from the canonical set",
	}, []string{"reason"})

	MarkersFading = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "markers",
		Name:      "fade_started_total",
		Help:      "Total markers that entered the fading state",
	})

	CanonicalMarkers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fadepin",
		Subsystem: "markers",
		Name:      "canonical",
		Help:      "Markers currently in the canonical set",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fadepin",
		Subsystem: "scheduler",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a lifecycle scheduler tick",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// Slot storage metrics
	SlotReadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "slot",
		Name:      "read_failures_total",
		Help:      "Slot reads that failed and were treated as empty",
	}, []string{"stage"})

	SlotWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "slot",
		Name:      "write_failures_total",
		Help:      "Slot writes that failed",
	})

	SlotSyncs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "slot",
		Name:      "syncs_total",
		Help:      "Reloads triggered by change notifications",
	})

	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fadepin",
		Subsystem: "slot",
		Name:      "notify_failures_total",
		Help:      "Change notifications that could not be published",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fadepin",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
