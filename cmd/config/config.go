package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	_defaultHTTPPort       = 3000
	_defaultLogLevel       = "info"
	_defaultDatabaseDriver = "memory"
	_defaultQueryTimeout   = 5 * time.Second
)

var loadConfigOnce sync.Once
var configInstance AppConfig

var commandLineArgs = func() []string { return os.Args[1:] }

// LoadConfig reads the configuration document once per process. The
// --config flag points at an explicit JSON or YAML file; otherwise
// server.{yaml,json} is searched in ./config and /config.
func LoadConfig() AppConfig {
	loadConfigOnce.Do(func() {
		flags := pflag.NewFlagSet("measurements-server", pflag.ExitOnError)
		configPath := flags.String("config", "", "path to the configuration file")
		_ = flags.Parse(commandLineArgs())

		v := viper.New()
		if err := readConfig(v, *configPath); err != nil {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}

		cfg, err := fromViper(v)
		if err != nil {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		configInstance = cfg
	})

	return configInstance
}

func readConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("measurements_server")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("server")
		v.AddConfigPath("config")
		v.AddConfigPath("/config")
	}

	return v.ReadInConfig()
}

// Load builds an AppConfig from an already populated viper instance.
func Load(v *viper.Viper) (AppConfig, error) {
	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", _defaultLogLevel)
	v.SetDefault("http.port", _defaultHTTPPort)
	v.SetDefault("database.driver", _defaultDatabaseDriver)
	v.SetDefault("database.query_timeout", _defaultQueryTimeout)
	v.SetDefault("database.max_entries_per_measurement", 0)
}

func fromViper(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		General: GeneralConfig{
			LogLevel: v.GetString("general.log_level"),
		},
		HTTP: HTTPConfig{
			Port:           v.GetInt("http.port"),
			AllowedOrigins: v.GetStringSlice("http.allowed_origins"),
		},
		Database: DatabaseConfig{
			Driver:                   v.GetString("database.driver"),
			QueryTimeout:             v.GetDuration("database.query_timeout"),
			MaxEntriesPerMeasurement: v.GetInt("database.max_entries_per_measurement"),
		},
		MQTTClient: MQTTClientConfig{
			Broker:   v.GetString("mqtt_client.broker"),
			ClientID: v.GetString("mqtt_client.client_id"),
			Username: v.GetString("mqtt_client.username"),
			Password: v.GetString("mqtt_client.password"),
		},
	}

	if err := v.UnmarshalKey("sensors", &cfg.Sensors); err != nil {
		return AppConfig{}, fmt.Errorf("decoding sensors: %w", err)
	}
	if err := v.UnmarshalKey("measurements", &cfg.Measurements); err != nil {
		return AppConfig{}, fmt.Errorf("decoding measurements: %w", err)
	}
	if err := v.UnmarshalKey("recorders", &cfg.Recorders); err != nil {
		return AppConfig{}, fmt.Errorf("decoding recorders: %w", err)
	}

	return cfg, nil
}

type AppConfig struct {
	General      GeneralConfig
	HTTP         HTTPConfig
	Database     DatabaseConfig
	MQTTClient   MQTTClientConfig
	Sensors      SensorsConfig
	Measurements MeasurementsConfig
	Recorders    RecordersConfig
}

type GeneralConfig struct {
	LogLevel string
}

type HTTPConfig struct {
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig selects the measurements store. Driver is "memory" or
// "sqlite"; both keep data only for the lifetime of the process.
type DatabaseConfig struct {
	Driver                   string
	QueryTimeout             time.Duration
	MaxEntriesPerMeasurement int
}

type MQTTClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

type SensorsConfig []SensorConfig

// SensorConfig describes one sensor. Config holds the type specific
// parameters and is decoded by the sensor factory.
type SensorConfig struct {
	ID     string         `mapstructure:"id"`
	Type   string         `mapstructure:"type"`
	Config map[string]any `mapstructure:"config"`
}

type MeasurementsConfig []MeasurementSupplierConfig

type MeasurementSupplierConfig struct {
	ID        string `mapstructure:"id"`
	SensorID  string `mapstructure:"sensor-id"`
	SensorKey string `mapstructure:"sensor-key"`
}

type RecordersConfig []RecorderConfig

type RecorderConfig struct {
	ID            string         `mapstructure:"id"`
	MeasurementID string         `mapstructure:"measurement-id"`
	Mode          string         `mapstructure:"mode"`
	Config        map[string]any `mapstructure:"config"`
}
