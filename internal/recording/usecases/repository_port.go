package usecases

import (
	"context"

	"measurements-server/internal/recording/domain"
)

//go:generate mockgen -source=./repository_port.go -destination=../../../test/unit/doubles/recording/usecases/repository_port_mock.go -package=usecases

// MeasurementsDatabase is the append-only log of recorded measurements,
// partitioned by supplier id.
type MeasurementsDatabase interface {
	Record(context.Context, domain.Measurement) error
	// Latest returns up to count entries for the supplier, newest first.
	Latest(ctx context.Context, supplierID string, count int) ([]domain.Measurement, error)
}
