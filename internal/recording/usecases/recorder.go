package usecases

import (
	"context"
	"fmt"

	"measurements-server/internal/recording/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RecorderModeManual   = "manual"
	RecorderModePeriodic = "periodic"
)

// Recorder decides when measurements of its supplier are captured and
// persisted. What a recorder can do beyond that is discovered through
// the ManualRecording and PeriodicRecording capabilities.
type Recorder interface {
	ID() string
	Mode() string
	MeasurementSupplier() *MeasurementSupplier
	Database() MeasurementsDatabase
}

type ManualRecording interface {
	Recorder
	RecordOneMeasurement(context.Context) (domain.Measurement, error)
}

type PeriodicRecording interface {
	Recorder
	StartRecording(context.Context) error
	StopRecording(context.Context) error
	IsRecording() bool
}

type recorder struct {
	id                  string
	measurementSupplier *MeasurementSupplier
	database            MeasurementsDatabase
	metrics             recordingMetrics
}

func newRecorder(id string, measurementSupplier *MeasurementSupplier, database MeasurementsDatabase) recorder {
	return recorder{
		id:                  id,
		measurementSupplier: measurementSupplier,
		database:            database,
		metrics:             newRecordingMetrics(),
	}
}

func (r *recorder) ID() string {
	return r.id
}

func (r *recorder) MeasurementSupplier() *MeasurementSupplier {
	return r.measurementSupplier
}

func (r *recorder) Database() MeasurementsDatabase {
	return r.database
}

// captureAndStore never writes to the database when the read fails.
func (r *recorder) captureAndStore(ctx context.Context) (domain.Measurement, error) {
	measurement, err := r.measurementSupplier.Get(ctx)
	if err != nil {
		r.metrics.recorded(ctx, r.id, "read_failed")
		return domain.Measurement{}, fmt.Errorf("%w: recorder %s: %w", domain.ErrRecording, r.id, err)
	}

	if err := r.database.Record(ctx, measurement); err != nil {
		r.metrics.recorded(ctx, r.id, "store_failed")
		return domain.Measurement{}, fmt.Errorf("%w: recorder %s: %w", domain.ErrRecording, r.id, err)
	}

	r.metrics.recorded(ctx, r.id, "success")
	return measurement, nil
}

type recordingMetrics struct {
	recordings   metric.Int64Counter
	skippedTicks metric.Int64Counter
}

func newRecordingMetrics() recordingMetrics {
	meter := otel.Meter("measurements_server")
	recordings, _ := meter.Int64Counter(
		fmt.Sprintf("%s.%s", "measurements_server", "recordings"),
		metric.WithDescription("measurements captured by recorders, by outcome"),
	)
	skippedTicks, _ := meter.Int64Counter(
		fmt.Sprintf("%s.%s", "measurements_server", "skipped_ticks"),
		metric.WithDescription("periodic ticks skipped because the previous capture was still running"),
	)

	return recordingMetrics{
		recordings:   recordings,
		skippedTicks: skippedTicks,
	}
}

func (m recordingMetrics) recorded(ctx context.Context, recorderID, outcome string) {
	if m.recordings == nil {
		return
	}
	m.recordings.Add(ctx, 1, metric.WithAttributes(
		attribute.String("recorder_id", recorderID),
		attribute.String("outcome", outcome),
	))
}

func (m recordingMetrics) skipped(ctx context.Context, recorderID string) {
	if m.skippedTicks == nil {
		return
	}
	m.skippedTicks.Add(ctx, 1, metric.WithAttributes(attribute.String("recorder_id", recorderID)))
}
