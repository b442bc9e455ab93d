package webui

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	chatTurns   *prometheus.CounterVec
	searches    *prometheus.CounterVec
	rateLimited prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) (*metrics, error) {
	m := &metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pooly_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pooly_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		chatTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pooly_chat_turns_total",
				Help: "Chat turns handled, by route",
			},
			[]string{"route"},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pooly_catalog_searches_total",
				Help: "Catalog search API calls, by outcome",
			},
			[]string{"outcome"},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pooly_chat_rate_limited_total",
				Help: "Chat requests rejected by the rate limiter",
			},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.chatTurns, m.searches, m.rateLimited} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
