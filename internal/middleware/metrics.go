package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var (
	requestCounter  metric.Int64Counter       = noop.Int64Counter{}
	requestDuration metric.Float64Histogram   = noop.Float64Histogram{}
	activeRequests  metric.Int64UpDownCounter = noop.Int64UpDownCounter{}
)

// InitMetrics creates the HTTP instruments on the global meter provider.
// Until it is called, Metrics records into no-op instruments.
func InitMetrics() error {
	meter := otel.Meter("github.com/iliyamo/carparking/internal/middleware")
	var err error

	if requestCounter, err = meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	if requestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}
	if activeRequests, err = meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}
	return nil
}

func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			base := metric.WithAttributes(
				attribute.String("http.method", c.Request().Method),
				attribute.String("http.route", c.Path()),
			)

			activeRequests.Add(ctx, 1, base)
			defer activeRequests.Add(ctx, -1, base)

			err := next(c)

			status := metric.WithAttributes(attribute.Int("http.status_code", c.Response().Status))
			requestCounter.Add(ctx, 1, base, status)
			requestDuration.Record(ctx, float64(time.Since(start).Milliseconds()), base, status)
			return err
		}
	}
}
