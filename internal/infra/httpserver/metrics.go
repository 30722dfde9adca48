package httpserver

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	_meterName      = "measurements-server"
	_metricPrefix   = "measurements_server.http"
	_unmatchedRoute = "unmatched"
)

var _durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// requestMetrics holds the instruments of one server. Requests are labelled
// with the mux pattern that serves them rather than the raw path, so
// latest/5 and latest/10 share a series.
type requestMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newRequestMetrics(meter metric.Meter) (*requestMetrics, error) {
	duration, err := meter.Float64Histogram(_metricPrefix+".request.duration.seconds",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(_durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	total, err := meter.Int64Counter(_metricPrefix+".requests.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter(_metricPrefix+".requests.active",
		metric.WithDescription("Number of HTTP requests currently being processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating in-flight counter: %w", err)
	}

	return &requestMetrics{duration: duration, total: total, inFlight: inFlight}, nil
}

func (m *requestMetrics) middleware(router *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			route := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routeOf(router, r)),
			)

			m.inFlight.Add(ctx, 1, route)
			defer m.inFlight.Add(ctx, -1, route)

			recorder := newStatusRecorder(w)
			next.ServeHTTP(recorder, r)

			status := metric.WithAttributes(attribute.Int("http.status_code", recorder.status))
			m.duration.Record(ctx, time.Since(start).Seconds(), route, status)
			m.total.Add(ctx, 1, route, status)
		})
	}
}

// routeOf names the pattern that router would dispatch r to.
func routeOf(router *http.ServeMux, r *http.Request) string {
	if _, pattern := router.Handler(r); pattern != "" {
		return pattern
	}
	return _unmatchedRoute
}

// statusRecorder remembers the status written through it and keeps the
// connection hijackable for websocket upgrades.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
	}
	return hijacker.Hijack()
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
