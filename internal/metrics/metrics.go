package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "farmmitra_registrations_total", Help: "Total successful registrations by role"},
		[]string{"role"},
	)
	Logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "farmmitra_logins_total", Help: "Total login attempts by outcome"},
		[]string{"outcome"},
	)
	Purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "farmmitra_purchases_total", Help: "Total purchase attempts by outcome"},
		[]string{"outcome"},
	)
	Inquiries = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "farmmitra_inquiries_total", Help: "Total inquiries created"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmmitra_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Registrations, Logins, Purchases, Inquiries, RequestDuration)
	})
}

// Middleware records the latency of every request under its route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
