package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Supplier produces a value synchronously.
type Supplier[T any] interface {
	Get() T
}

type SupplierFunc[T any] func() T

func (f SupplierFunc[T]) Get() T {
	return f()
}

// AsyncSupplier produces a value that may require I/O.
type AsyncSupplier[T any] interface {
	Get(ctx context.Context) (T, error)
}

type AsyncSupplierFunc[T any] func(ctx context.Context) (T, error)

func (f AsyncSupplierFunc[T]) Get(ctx context.Context) (T, error) {
	return f(ctx)
}

// Runnable is a side-effecting action without a result.
type Runnable interface {
	Run(ctx context.Context) error
}

type RunnableFunc func(ctx context.Context) error

func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type errorStatus struct {
	target error
	status int
}

// ErrorStatusMapper translates errors returned by adapted capabilities into
// HTTP status codes. Unmatched errors are reported as 500.
type ErrorStatusMapper struct {
	rules []errorStatus
}

type ErrorStatusOption func(*ErrorStatusMapper)

func WithErrorStatus(target error, status int) ErrorStatusOption {
	return func(m *ErrorStatusMapper) {
		m.rules = append(m.rules, errorStatus{target: target, status: status})
	}
}

func NewErrorStatusMapper(opts ...ErrorStatusOption) ErrorStatusMapper {
	var mapper ErrorStatusMapper
	for _, opt := range opts {
		opt(&mapper)
	}
	return mapper
}

func (m ErrorStatusMapper) StatusFor(err error) int {
	for _, rule := range m.rules {
		if errors.Is(err, rule.target) {
			return rule.status
		}
	}
	return http.StatusInternalServerError
}

func (m ErrorStatusMapper) ReplyWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := m.StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("handling request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	ReplyWithError(w, status, err.Error())
}

// HandleSupplier serializes the supplied value. A panicking supplier is
// answered with a 500.
func HandleSupplier[T any](supplier Supplier[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := safeGet(supplier)
		if err != nil {
			slog.Error("supplier panicked", slog.String("path", r.URL.Path), slog.Any("error", err))
			ReplyWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ReplyJSONResponse(w, http.StatusOK, value)
	}
}

func safeGet[T any](supplier Supplier[T]) (value T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("supplier panic: %v", recovered)
		}
	}()

	return supplier.Get(), nil
}

func HandleAsyncSupplier[T any](supplier AsyncSupplier[T], errs ErrorStatusMapper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := supplier.Get(r.Context())
		if err != nil {
			errs.ReplyWithError(w, r, err)
			return
		}

		ReplyJSONResponse(w, http.StatusOK, value)
	}
}

// HandleRunnable answers 204 once the action completes.
func HandleRunnable(runnable Runnable, errs ErrorStatusMapper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := runnable.Run(r.Context()); err != nil {
			errs.ReplyWithError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
