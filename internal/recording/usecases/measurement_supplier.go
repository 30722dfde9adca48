package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/recording/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MeasurementSupplier binds one sensor value key under a stable id. The
// binding is validated once at construction and never changes.
type MeasurementSupplier struct {
	id     string
	sensor domain.Sensor
	key    string
	now    func() time.Time
}

func NewMeasurementSupplier(id string, sensor domain.Sensor, key string) (*MeasurementSupplier, error) {
	if err := domain.ValidateID("measurement", id); err != nil {
		return nil, err
	}
	if !domain.HasValueKey(sensor, key) {
		return nil, fmt.Errorf("%w: measurement %s wants unknown sensor-key %s on sensor %s",
			domain.ErrInvalidBinding, id, key, sensor.ID())
	}

	return &MeasurementSupplier{
		id:     id,
		sensor: sensor,
		key:    key,
		now:    time.Now,
	}, nil
}

func (s *MeasurementSupplier) ID() string {
	return s.id
}

func (s *MeasurementSupplier) Sensor() domain.Sensor {
	return s.sensor
}

func (s *MeasurementSupplier) SensorKey() string {
	return s.key
}

// Get reads the bound key and stamps the reading with the read time.
func (s *MeasurementSupplier) Get(ctx context.Context) (domain.Measurement, error) {
	ctx, span := otel.Tracer("measurements-server").Start(ctx, "measurement.read",
		trace.WithAttributes(
			attribute.String("supplier_id", s.id),
			attribute.String("sensor_id", s.sensor.ID()),
			attribute.String("sensor_key", s.key),
		),
	)
	defer span.End()

	value, err := s.sensor.Read(ctx, s.key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sensor read failed")
		return domain.Measurement{}, fmt.Errorf("%w: %s: %w", domain.ErrSupplierRead, s.id, err)
	}

	return domain.NewMeasurement(s.id, value, s.now()), nil
}

// MeasurementSupplierCollection keeps suppliers in configuration order.
type MeasurementSupplierCollection struct {
	suppliers []*MeasurementSupplier
	byID      map[string]*MeasurementSupplier
}

func NewMeasurementSupplierCollection(suppliers ...*MeasurementSupplier) (*MeasurementSupplierCollection, error) {
	collection := &MeasurementSupplierCollection{
		suppliers: make([]*MeasurementSupplier, 0, len(suppliers)),
		byID:      make(map[string]*MeasurementSupplier, len(suppliers)),
	}

	for _, supplier := range suppliers {
		if _, exists := collection.byID[supplier.ID()]; exists {
			return nil, fmt.Errorf("%w: duplicated measurement id %s", domain.ErrInvalidConfig, supplier.ID())
		}
		collection.suppliers = append(collection.suppliers, supplier)
		collection.byID[supplier.ID()] = supplier
	}

	return collection, nil
}

// SensorFinder resolves sensors referenced by measurement configurations.
type SensorFinder interface {
	FindByID(id string) (domain.Sensor, error)
}

// SetUpMeasurementSuppliers resolves every configured binding against the
// available sensors, failing on the first unresolved reference.
func SetUpMeasurementSuppliers(cfgs config.MeasurementsConfig, sensors SensorFinder) (*MeasurementSupplierCollection, error) {
	suppliers := make([]*MeasurementSupplier, 0, len(cfgs))
	for _, cfg := range cfgs {
		sensor, err := sensors.FindByID(cfg.SensorID)
		if err != nil {
			return nil, fmt.Errorf("measurement %s: %w", cfg.ID, err)
		}

		supplier, err := NewMeasurementSupplier(cfg.ID, sensor, cfg.SensorKey)
		if err != nil {
			return nil, err
		}

		slog.Info("measurement supplier created",
			slog.String("supplier_id", supplier.ID()),
			slog.String("sensor_id", cfg.SensorID),
			slog.String("sensor_key", cfg.SensorKey))
		suppliers = append(suppliers, supplier)
	}

	return NewMeasurementSupplierCollection(suppliers...)
}

func (c *MeasurementSupplierCollection) FindByID(id string) (*MeasurementSupplier, error) {
	supplier, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: measurement %s", domain.ErrNotFound, id)
	}

	return supplier, nil
}

func (c *MeasurementSupplierCollection) All() []*MeasurementSupplier {
	return c.suppliers
}
