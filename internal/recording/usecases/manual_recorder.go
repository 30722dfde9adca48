package usecases

import (
	"context"

	"measurements-server/internal/recording/domain"
)

var _ ManualRecording = (*ManualRecorder)(nil)

// ManualRecorder captures exactly one measurement per trigger.
type ManualRecorder struct {
	recorder
}

func NewManualRecorder(id string, measurementSupplier *MeasurementSupplier, database MeasurementsDatabase) *ManualRecorder {
	return &ManualRecorder{
		recorder: newRecorder(id, measurementSupplier, database),
	}
}

func (r *ManualRecorder) Mode() string {
	return RecorderModeManual
}

func (r *ManualRecorder) RecordOneMeasurement(ctx context.Context) (domain.Measurement, error) {
	return r.captureAndStore(ctx)
}
