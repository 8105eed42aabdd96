package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts handled requests.
	// Labels: method, route (gin full path), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "afro",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "afro",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Metrics records request counts and latencies. Unmatched routes share the
// "unmatched" label so arbitrary paths cannot grow the label set.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
