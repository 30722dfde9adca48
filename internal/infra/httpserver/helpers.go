package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

type ErrorResponse struct {
	Message string `json:"message,omitempty"`
}

func ReplyWithError(w http.ResponseWriter, statusCode int, errMsg string) {
	errResponse := &ErrorResponse{
		Message: errMsg,
	}
	ReplyJSONResponse(w, statusCode, errResponse)
}

func ReplyJSONResponse(w http.ResponseWriter, statusCode int, output any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.Error("encoding json response", slog.Any("error", err))
	}
}

func GetPathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// GetSpanFromContext returns the request span, or a no-op span when the
// tracing middleware did not run.
func GetSpanFromContext(r *http.Request) trace.Span {
	return trace.SpanFromContext(r.Context())
}
