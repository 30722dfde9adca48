package sensors

import (
	"fmt"
	"log/slog"

	"measurements-server/cmd/config"
	"measurements-server/internal/recording/domain"
)

// SensorCollection owns every sensor built at startup, keyed by id.
type SensorCollection struct {
	sensors []domain.Sensor
	byID    map[string]domain.Sensor
}

func NewSensorCollection(sensors ...domain.Sensor) (*SensorCollection, error) {
	collection := &SensorCollection{
		sensors: make([]domain.Sensor, 0, len(sensors)),
		byID:    make(map[string]domain.Sensor, len(sensors)),
	}

	for _, sensor := range sensors {
		if _, exists := collection.byID[sensor.ID()]; exists {
			return nil, fmt.Errorf("%w: duplicated sensor id %s", domain.ErrInvalidConfig, sensor.ID())
		}
		collection.sensors = append(collection.sensors, sensor)
		collection.byID[sensor.ID()] = sensor
	}

	return collection, nil
}

// SetUpSensors builds one sensor per configuration entry.
func SetUpSensors(cfgs config.SensorsConfig, factory *SensorFactory) (*SensorCollection, error) {
	sensors := make([]domain.Sensor, 0, len(cfgs))
	for _, cfg := range cfgs {
		sensor, err := factory.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating sensor %s: %w", cfg.ID, err)
		}

		slog.Info("sensor created",
			slog.String("sensor_id", sensor.ID()),
			slog.String("type", cfg.Type),
			slog.Any("value_keys", sensor.ValueKeys()))
		sensors = append(sensors, sensor)
	}

	return NewSensorCollection(sensors...)
}

func (c *SensorCollection) FindByID(id string) (domain.Sensor, error) {
	sensor, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: sensor %s", domain.ErrNotFound, id)
	}

	return sensor, nil
}

func (c *SensorCollection) All() []domain.Sensor {
	return c.sensors
}
