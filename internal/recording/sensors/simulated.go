package sensors

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"measurements-server/internal/recording/domain"
)

const _walkStepRatio = 0.05

type SimulatedSensorConfig struct {
	Keys map[string]SimulatedValueConfig `mapstructure:"keys"`
}

type SimulatedValueConfig struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

var _ domain.Sensor = (*SimulatedSensor)(nil)

// SimulatedSensor produces a bounded random walk for every configured key.
type SimulatedSensor struct {
	id     string
	keys   []string
	bounds map[string]SimulatedValueConfig
	mu     sync.Mutex
	values map[string]float64
}

func NewSimulatedSensor(id string, cfg SimulatedSensorConfig) (*SimulatedSensor, error) {
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("%w: simulated sensor %s has no keys", domain.ErrInvalidConfig, id)
	}

	sensor := &SimulatedSensor{
		id:     id,
		keys:   make([]string, 0, len(cfg.Keys)),
		bounds: make(map[string]SimulatedValueConfig, len(cfg.Keys)),
		values: make(map[string]float64, len(cfg.Keys)),
	}

	for key, bounds := range cfg.Keys {
		if bounds.Max < bounds.Min {
			return nil, fmt.Errorf("%w: key %s has max below min", domain.ErrInvalidConfig, key)
		}
		sensor.keys = append(sensor.keys, key)
		sensor.bounds[key] = bounds
		sensor.values[key] = bounds.Min + (bounds.Max-bounds.Min)/2
	}
	slices.Sort(sensor.keys)

	return sensor, nil
}

func (s *SimulatedSensor) ID() string {
	return s.id
}

func (s *SimulatedSensor) ValueKeys() []string {
	return slices.Clone(s.keys)
}

func (s *SimulatedSensor) Read(_ context.Context, key string) (any, error) {
	bounds, ok := s.bounds[key]
	if !ok {
		return nil, fmt.Errorf("%w: sensor %s has no key %s", domain.ErrUnknownKey, s.id, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	step := (bounds.Max - bounds.Min) * _walkStepRatio
	next := s.values[key] + (rand.Float64()*2-1)*step
	next = math.Max(bounds.Min, math.Min(bounds.Max, next))
	s.values[key] = next

	return math.Round(next*100) / 100, nil
}
