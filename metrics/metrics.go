package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "user_service_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// EventsPublished counts lifecycle event publish attempts by type and outcome.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_events_published_total",
			Help: "User lifecycle events handed to the broker, by type and result",
		},
		[]string{"event_type", "result"},
	)

	// EventsConsumed counts lifecycle events processed by the consumer.
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_service_events_consumed_total",
			Help: "User lifecycle events processed by the consumer, by type and result",
		},
		[]string{"event_type", "result"},
	)
)

// Middleware records request duration labelled by route template, so
// /users/1 and /users/2 share a series.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			// Errors are rendered here so the recorded status is the one sent.
			if err := next(c); err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			httpRequestDuration.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler exposes the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
