package persistence

import (
	"context"
	"errors"
	"log/slog"

	"measurements-server/internal/infra/async"
	"measurements-server/internal/recording/domain"
)

const EventMeasurementRecorded = "measurement_recorded"

// MeasurementTopic is the broker topic carrying recorded measurements of a
// supplier.
func MeasurementTopic(supplierID string) async.BrokerTopicName {
	return async.BrokerTopicName("measurements." + supplierID)
}

type measurementPublisher struct {
	broker async.InternalBroker
}

func (p measurementPublisher) publish(ctx context.Context, measurement domain.Measurement) {
	if p.broker == nil {
		return
	}

	err := p.broker.Publish(ctx, MeasurementTopic(measurement.SupplierID), async.BrokerMessage{
		Event: EventMeasurementRecorded,
		Value: measurement,
	})
	// nobody listening
	if err != nil && !errors.Is(err, async.ErrTopicNotFound) {
		slog.Warn("publishing recorded measurement",
			slog.String("supplier_id", measurement.SupplierID),
			slog.Any("error", err))
	}
}
