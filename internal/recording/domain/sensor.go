package domain

import (
	"context"
	"slices"
)

//go:generate mockgen -source=./sensor.go -destination=../../../test/unit/doubles/recording/domain/sensor_mock.go -package=domain

// Sensor is a named source of readings. Each value key is readable on its own.
type Sensor interface {
	ID() string
	ValueKeys() []string
	Read(ctx context.Context, key string) (any, error)
}

// HasValueKey reports whether the sensor advertises the given key.
func HasValueKey(sensor Sensor, key string) bool {
	return slices.Contains(sensor.ValueKeys(), key)
}
