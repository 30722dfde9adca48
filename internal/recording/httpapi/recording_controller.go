package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"measurements-server/internal/infra/httpserver"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/httpapi/internal"
	"measurements-server/internal/recording/usecases"
)

const _defaultLatestCount = 1

// NewErrorStatusMapper maps the recording error taxonomy onto HTTP statuses.
func NewErrorStatusMapper() httpserver.ErrorStatusMapper {
	return httpserver.NewErrorStatusMapper(
		httpserver.WithErrorStatus(domain.ErrInvalidArgument, http.StatusBadRequest),
		httpserver.WithErrorStatus(domain.ErrNotFound, http.StatusNotFound),
	)
}

func NewRecordingController(
	version *usecases.GetVersion,
	suppliers *usecases.MeasurementSupplierCollection,
	recorders *usecases.RecorderCollection,
) *RecordingController {
	return &RecordingController{
		version:   version,
		suppliers: suppliers,
		recorders: recorders,
		errs:      NewErrorStatusMapper(),
	}
}

var _ httpserver.Controller = &RecordingController{}

// RecordingController registers one route family per live supplier and
// recorder. Which recorder routes exist depends on the capabilities the
// recorder exposes.
type RecordingController struct {
	version   *usecases.GetVersion
	suppliers *usecases.MeasurementSupplierCollection
	recorders *usecases.RecorderCollection
	errs      httpserver.ErrorStatusMapper
}

func (c *RecordingController) AddRoutes(router *http.ServeMux) {
	router.Handle("GET /api/version", httpserver.HandleSupplier[usecases.VersionInfo](c.version))

	for _, supplier := range c.suppliers.All() {
		router.Handle(
			fmt.Sprintf("GET /api/measurement/%s/current", supplier.ID()),
			httpserver.HandleAsyncSupplier[internal.MeasurementResponse](currentMeasurement(supplier), c.errs),
		)
	}

	for _, recorder := range c.recorders.All() {
		base := "/api/recorder/" + recorder.ID()

		router.Handle("GET "+base+"/measurements/latest", c.latestMeasurements(recorder))
		router.Handle("GET "+base+"/measurements/latest/{count}", c.latestMeasurements(recorder))

		if manual, ok := recorder.(usecases.ManualRecording); ok {
			router.Handle("POST "+base+"/recordOneMeasurement",
				httpserver.HandleAsyncSupplier[internal.MeasurementResponse](recordOneMeasurement(manual), c.errs))
		}

		if periodic, ok := recorder.(usecases.PeriodicRecording); ok {
			router.Handle("POST "+base+"/startRecording",
				httpserver.HandleRunnable(httpserver.RunnableFunc(periodic.StartRecording), c.errs))
			router.Handle("POST "+base+"/stopRecording",
				httpserver.HandleRunnable(httpserver.RunnableFunc(periodic.StopRecording), c.errs))
		}

		slog.Debug("recorder routes registered",
			slog.String("recorder_id", recorder.ID()),
			slog.String("mode", recorder.Mode()))
	}

	router.Handle("/api/measurement/{id}/{rest...}", c.unboundRoute(func(id string) error {
		_, err := c.suppliers.FindByID(id)
		return err
	}))
	router.Handle("/api/recorder/{id}/{rest...}", c.unboundRoute(func(id string) error {
		_, err := c.recorders.FindByID(id)
		return err
	}))
}

func currentMeasurement(supplier *usecases.MeasurementSupplier) httpserver.AsyncSupplierFunc[internal.MeasurementResponse] {
	return func(ctx context.Context) (internal.MeasurementResponse, error) {
		measurement, err := supplier.Get(ctx)
		if err != nil {
			return internal.MeasurementResponse{}, err
		}
		return internal.ToMeasurementResponse(measurement), nil
	}
}

func recordOneMeasurement(recorder usecases.ManualRecording) httpserver.AsyncSupplierFunc[internal.MeasurementResponse] {
	return func(ctx context.Context) (internal.MeasurementResponse, error) {
		measurement, err := recorder.RecordOneMeasurement(ctx)
		if err != nil {
			return internal.MeasurementResponse{}, err
		}
		return internal.ToMeasurementResponse(measurement), nil
	}
}

func (c *RecordingController) latestMeasurements(recorder usecases.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := parseCount(httpserver.GetPathParam(r, "count"))
		if err != nil {
			c.errs.ReplyWithError(w, r, err)
			return
		}

		latest := httpserver.AsyncSupplierFunc[[]internal.MeasurementResponse](func(ctx context.Context) ([]internal.MeasurementResponse, error) {
			measurements, err := recorder.Database().Latest(ctx, recorder.MeasurementSupplier().ID(), count)
			if err != nil {
				return nil, err
			}
			return internal.ToMeasurementResponses(measurements), nil
		})

		httpserver.HandleAsyncSupplier[[]internal.MeasurementResponse](latest, c.errs)(w, r)
	}
}

func parseCount(raw string) (int, error) {
	if raw == "" {
		return _defaultLatestCount, nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("%w: count must be a non-negative integer, got %q", domain.ErrInvalidArgument, raw)
	}

	return count, nil
}

// unboundRoute answers paths under a known prefix that no live instance
// registered, such as an unknown id or an operation the instance lacks.
func (c *RecordingController) unboundRoute(lookup func(id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := httpserver.GetPathParam(r, "id")
		err := lookup(id)
		if err == nil {
			err = fmt.Errorf("%w: %s %s", domain.ErrNotFound, r.Method, r.URL.Path)
		}

		c.errs.ReplyWithError(w, r, err)
	}
}
