package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"measurements-server/cmd/config"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	_tracerName        = "measurements-server"
	_readHeaderTimeout = 5 * time.Second
	_shutdownTimeout   = 10 * time.Second
)

type Server interface {
	Run()
	Shutdown()
}

var _ Server = &StandardServer{}

type StandardServer struct {
	server *http.Server
}

// NewServer mounts the health and metrics endpoints plus every controller
// on one mux, wrapped as cors -> metrics -> tracing -> mux.
func NewServer(cfg config.HTTPConfig, controllers ...Controller) *StandardServer {
	router := http.NewServeMux()
	router.Handle("GET /healthz", getHealthz())
	router.Handle("GET /metrics", promhttp.Handler())
	for _, controller := range controllers {
		controller.AddRoutes(router)
	}

	var handler http.Handler = router
	handler = traceRequests(router)(handler)
	metrics, err := newRequestMetrics(otel.GetMeterProvider().Meter(_meterName))
	if err != nil {
		slog.Error("http metrics disabled", slog.Any("error", err))
	} else {
		handler = metrics.middleware(router)(handler)
	}
	handler = newCORS(cfg.AllowedOrigins).Handler(handler)

	return &StandardServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: _readHeaderTimeout,
		},
	}
}

func (s *StandardServer) Run() {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

// Shutdown stops accepting connections and waits for in-flight requests.
// Hijacked websocket connections are not waited for.
func (s *StandardServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("http server did not shut down cleanly", slog.Any("error", err))
	}
}

// Handler exposes the full middleware chain, mainly for httptest servers.
func (s *StandardServer) Handler() http.Handler {
	return s.server.Handler
}

func newCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}

// traceRequests opens a server span per request named after the serving
// pattern. b3 headers are read from the request and echoed on the response.
func traceRequests(router *http.ServeMux) func(http.Handler) http.Handler {
	propagator := b3.New()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeOf(router, r)
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := otel.Tracer(_tracerName).Start(ctx, route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", route),
					attribute.String("http.target", r.URL.Path),
					attribute.String("http.user_agent", r.UserAgent()),
				),
			)
			defer span.End()

			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			recorder := newStatusRecorder(w)
			next.ServeHTTP(recorder, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		})
	}
}

func getHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		GetSpanFromContext(r).SetAttributes(attribute.String("endpoint", "healthz"))
		ReplyJSONResponse(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
