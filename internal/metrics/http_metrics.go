package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics captures request rate and latency for the API surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	httpMetricsOnce sync.Once
	httpMetrics     *HTTPMetrics
)

// HTTP returns the singleton HTTP metrics registry.
func HTTP() *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		httpMetrics = newHTTPMetrics(prometheus.DefaultRegisterer)
	})
	return httpMetrics
}

// ResetHTTPMetricsForTest resets the HTTP metrics singleton for tests.
func ResetHTTPMetricsForTest() {
	httpMetricsOnce = sync.Once{}
	httpMetrics = nil
}

func newHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status_code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ganhesocial_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "method"})

	registerer.MustRegister(requests, duration)

	return &HTTPMetrics{requests: requests, duration: duration}
}

// GinMiddleware records request counts and latency. Unmatched routes
// are bucketed under "unmatched" to keep cardinality bounded.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
