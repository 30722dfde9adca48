package persistence

import (
	"context"
	"fmt"
	"sync"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/usecases"
)

var _ usecases.MeasurementsDatabase = (*MemoryMeasurementsDatabase)(nil)

// MemoryMeasurementsDatabase is a volatile, per-supplier append log guarded
// by a single lock. Every appended measurement is also announced on the
// broker when one is provided.
type MemoryMeasurementsDatabase struct {
	mu         sync.RWMutex
	partitions map[string][]domain.Measurement
	maxEntries int
	publisher  measurementPublisher
}

func NewMemoryMeasurementsDatabase(cfg config.DatabaseConfig, broker async.InternalBroker) *MemoryMeasurementsDatabase {
	return &MemoryMeasurementsDatabase{
		partitions: make(map[string][]domain.Measurement),
		maxEntries: max(cfg.MaxEntriesPerMeasurement, 0),
		publisher:  measurementPublisher{broker: broker},
	}
}

func (d *MemoryMeasurementsDatabase) Record(ctx context.Context, measurement domain.Measurement) error {
	d.mu.Lock()
	partition := append(d.partitions[measurement.SupplierID], measurement)
	if d.maxEntries > 0 && len(partition) > d.maxEntries {
		partition = append(partition[:0:0], partition[len(partition)-d.maxEntries:]...)
	}
	d.partitions[measurement.SupplierID] = partition
	d.mu.Unlock()

	d.publisher.publish(ctx, measurement)
	return nil
}

func (d *MemoryMeasurementsDatabase) Latest(_ context.Context, supplierID string, count int) ([]domain.Measurement, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", domain.ErrInvalidArgument, count)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	partition := d.partitions[supplierID]
	n := min(count, len(partition))
	latest := make([]domain.Measurement, 0, n)
	for i := len(partition) - 1; i >= len(partition)-n; i-- {
		latest = append(latest, partition[i])
	}

	return latest, nil
}
