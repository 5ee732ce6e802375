package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BookingsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "louer_bookings_created_total",
		Help: "Total number of bookings created",
	})
	BookingTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "louer_booking_transitions_total",
		Help: "Booking status changes by target status",
	}, []string{"status"})
	ThreadsResolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "louer_threads_resolved_total",
		Help: "Thread create-or-get calls by outcome (created, existed)",
	}, []string{"outcome"})
	MessagesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "louer_messages_sent_total",
		Help: "Total number of thread messages sent",
	})
	FavoritesAddedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "louer_favorites_added_total",
		Help: "Total number of favorites added",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		BookingsCreatedTotal,
		BookingTransitionsTotal,
		ThreadsResolvedTotal,
		MessagesSentTotal,
		FavoritesAddedTotal,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			// unmatched routes share one label to bound cardinality
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
