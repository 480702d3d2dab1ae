package http

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// InstrumentationName is the meter scope of the request metrics.
const InstrumentationName = "github.com/fyrsmithlabs/cartd/internal/http"

// Request metric names.
const (
	metricRequests     = "cartd.http.requests_total"
	metricDuration     = "cartd.http.request_duration_seconds"
	metricResponseSize = "cartd.http.response_size_bytes"
	metricInFlight     = "cartd.http.in_flight_requests"
)

// requestMetrics records one sample per request, labeled by method, route
// template and status. Instruments that fail to register stay nil.
type requestMetrics struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	responseSize metric.Int64Histogram
	inFlight     metric.Int64UpDownCounter
}

func newRequestMetrics(meter metric.Meter, logger *zap.Logger) *requestMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	var m requestMetrics
	var errs []error
	var err error

	m.requests, err = meter.Int64Counter(metricRequests,
		metric.WithDescription("Cart API requests by method, route and status"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	m.duration, err = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Cart API request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5))
	errs = append(errs, err)

	m.responseSize, err = meter.Int64Histogram(metricResponseSize,
		metric.WithDescription("Cart API response body size"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(64, 256, 1024, 4096, 16384))
	errs = append(errs, err)

	m.inFlight, err = meter.Int64UpDownCounter(metricInFlight,
		metric.WithDescription("Cart API requests being served"),
		metric.WithUnit("{request}"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		logger.Warn("failed to register request metrics", zap.Error(err))
	}
	return &m
}

// middleware records the request. Handler errors are rendered here so the
// status label matches what the client received.
func (m *requestMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			start := time.Now()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			opt := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("route", routeLabel(c.Path())),
				attribute.Int("status", c.Response().Status),
			)
			if m.requests != nil {
				m.requests.Add(ctx, 1, opt)
			}
			if m.duration != nil {
				m.duration.Record(ctx, time.Since(start).Seconds(), opt)
			}
			if m.responseSize != nil {
				m.responseSize.Record(ctx, c.Response().Size, opt)
			}
			return nil
		}
	}
}

// routeLabel returns the matched route template, so /cart/items/1 and
// /cart/items/2 share a series. Unmatched requests collapse to "/".
func routeLabel(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
