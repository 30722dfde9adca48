package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"measurements-server/internal/infra/mqtt"
	"measurements-server/internal/recording/domain"
)

type MQTTSensorConfig struct {
	Topic string   `mapstructure:"topic"`
	QoS   byte     `mapstructure:"qos"`
	Keys  []string `mapstructure:"keys"`
}

var _ domain.Sensor = (*MQTTSensor)(nil)

// MQTTSensor caches the latest value of every advertised key from JSON
// objects published on a topic.
type MQTTSensor struct {
	id     string
	topic  string
	keys   []string
	mu     sync.RWMutex
	latest map[string]any
}

func NewMQTTSensor(id string, cfg MQTTSensorConfig, client mqtt.Client) (*MQTTSensor, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: mqtt sensor %s has no topic", domain.ErrInvalidConfig, id)
	}
	if len(cfg.Keys) == 0 {
		return nil, fmt.Errorf("%w: mqtt sensor %s has no keys", domain.ErrInvalidConfig, id)
	}

	keys := slices.Clone(cfg.Keys)
	slices.Sort(keys)
	sensor := &MQTTSensor{
		id:     id,
		topic:  cfg.Topic,
		keys:   slices.Compact(keys),
		latest: make(map[string]any, len(keys)),
	}

	if err := client.Subscribe(cfg.Topic, cfg.QoS, sensor.handleMessage); err != nil {
		return nil, fmt.Errorf("subscribing sensor %s: %w", id, err)
	}

	return sensor, nil
}

func (s *MQTTSensor) ID() string {
	return s.id
}

func (s *MQTTSensor) ValueKeys() []string {
	return slices.Clone(s.keys)
}

func (s *MQTTSensor) Read(_ context.Context, key string) (any, error) {
	if !slices.Contains(s.keys, key) {
		return nil, fmt.Errorf("%w: sensor %s has no key %s", domain.ErrUnknownKey, s.id, key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.latest[key]
	if !ok {
		return nil, fmt.Errorf("%w: sensor %s key %s", domain.ErrNoReading, s.id, key)
	}

	return value, nil
}

func (s *MQTTSensor) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var payload map[string]any
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		slog.Warn("discarding malformed sensor message",
			slog.String("sensor_id", s.id),
			slog.String("topic", msg.Topic()),
			slog.Any("error", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.keys {
		if value, ok := payload[key]; ok {
			s.latest[key] = value
		}
	}
}
