package sensors

import (
	"fmt"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/mqtt"
	"measurements-server/internal/infra/utils"
	"measurements-server/internal/recording/domain"
)

const (
	SensorTypeSimulated = "simulated"
	SensorTypeMQTT      = "mqtt"
)

// MQTTClientProvider hands out the shared MQTT client. It is only invoked
// when an mqtt sensor is configured.
type MQTTClientProvider func() (mqtt.Client, error)

type SensorFactory struct {
	mqttClientProvider MQTTClientProvider
}

func NewSensorFactory(mqttClientProvider MQTTClientProvider) *SensorFactory {
	return &SensorFactory{
		mqttClientProvider: mqttClientProvider,
	}
}

// Create dispatches on the configured sensor type.
func (f *SensorFactory) Create(cfg config.SensorConfig) (domain.Sensor, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: sensor id is required", domain.ErrInvalidConfig)
	}

	switch cfg.Type {
	case SensorTypeSimulated:
		var params SimulatedSensorConfig
		if err := decodeParams(cfg.Config, &params); err != nil {
			return nil, err
		}
		return NewSimulatedSensor(cfg.ID, params)
	case SensorTypeMQTT:
		var params MQTTSensorConfig
		if err := decodeParams(cfg.Config, &params); err != nil {
			return nil, err
		}
		if f.mqttClientProvider == nil {
			return nil, fmt.Errorf("%w: no mqtt client available for sensor %s", domain.ErrInvalidConfig, cfg.ID)
		}
		client, err := f.mqttClientProvider()
		if err != nil {
			return nil, fmt.Errorf("connecting mqtt client: %w", err)
		}
		return NewMQTTSensor(cfg.ID, params, client)
	default:
		return nil, fmt.Errorf("%w: sensor type %q", domain.ErrUnknownMode, cfg.Type)
	}
}

func decodeParams(input map[string]any, output any) error {
	if err := utils.DecodeParams(input, output); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	return nil
}
