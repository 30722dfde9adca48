//go:build wireinject
// +build wireinject

package wire

import (
	"log/slog"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/mqtt"
	"measurements-server/internal/infra/node"
	"measurements-server/internal/recording/httpapi"
	"measurements-server/internal/recording/persistence"
	"measurements-server/internal/recording/sensors"
	"measurements-server/internal/recording/usecases"

	"github.com/google/wire"
)

// RecordingGraph holds the instances built from configuration. Every
// controller and worker shares the same graph.
type RecordingGraph struct {
	Suppliers *usecases.MeasurementSupplierCollection
	Recorders *usecases.RecorderCollection
	Database  usecases.MeasurementsDatabase
}

// InitializeRecordingGraph builds the graph. The returned cleanup releases
// the measurements store and disconnects the MQTT client if a sensor used it.
func InitializeRecordingGraph(cfg config.AppConfig, broker async.InternalBroker) (*RecordingGraph, func(), error) {
	wire.Build(
		provideMQTTClientProvider,
		sensors.NewSensorFactory,
		provideSensors,
		wire.Bind(new(usecases.SensorFinder), new(*sensors.SensorCollection)),
		provideMeasurementSuppliers,
		provideDatabaseConfig,
		provideMeasurementsDatabase,
		usecases.NewPeriodicRecorderFactory,
		usecases.NewRecorderFactory,
		provideRecorders,
		wire.Struct(new(RecordingGraph), "*"),
	)
	return nil, nil, nil
}

func InitializeRecordingController(graph *RecordingGraph) (*httpapi.RecordingController, error) {
	wire.Build(
		wire.FieldsOf(new(*RecordingGraph), "Suppliers", "Recorders"),
		provideGetVersion,
		httpapi.NewRecordingController,
	)
	return nil, nil
}

func InitializeMeasurementStreamController(graph *RecordingGraph, broker async.InternalBroker) (*httpapi.MeasurementStreamController, error) {
	wire.Build(
		wire.FieldsOf(new(*RecordingGraph), "Suppliers"),
		httpapi.NewMeasurementStreamController,
	)
	return nil, nil
}

func InitializeRecorderSupervisor(graph *RecordingGraph) (*usecases.RecorderSupervisor, error) {
	wire.Build(
		wire.FieldsOf(new(*RecordingGraph), "Recorders"),
		usecases.NewRecorderSupervisor,
	)
	return nil, nil
}

func provideMQTTClientProvider(cfg config.AppConfig) (sensors.MQTTClientProvider, func()) {
	client := mqtt.NewLazyClient(mqtt.SimpleClientOpts{
		Broker:   cfg.MQTTClient.Broker,
		ClientID: cfg.MQTTClient.ClientID,
		Username: cfg.MQTTClient.Username,
		Password: cfg.MQTTClient.Password, //pragma: allowlist secret
	})

	return client.Get, client.Disconnect
}

func provideSensors(cfg config.AppConfig, factory *sensors.SensorFactory) (*sensors.SensorCollection, error) {
	return sensors.SetUpSensors(cfg.Sensors, factory)
}

func provideMeasurementSuppliers(cfg config.AppConfig, finder usecases.SensorFinder) (*usecases.MeasurementSupplierCollection, error) {
	return usecases.SetUpMeasurementSuppliers(cfg.Measurements, finder)
}

func provideDatabaseConfig(cfg config.AppConfig) config.DatabaseConfig {
	return cfg.Database
}

func provideMeasurementsDatabase(cfg config.DatabaseConfig, broker async.InternalBroker) (usecases.MeasurementsDatabase, func(), error) {
	database, closer, err := persistence.NewMeasurementsDatabase(cfg, broker)
	if err != nil {
		return nil, nil, err
	}

	return database, func() {
		if err := closer.Close(); err != nil {
			slog.Warn("closing measurements database", slog.Any("error", err))
		}
	}, nil
}

func provideRecorders(
	cfg config.AppConfig,
	suppliers *usecases.MeasurementSupplierCollection,
	database usecases.MeasurementsDatabase,
	factory *usecases.RecorderFactory,
) (*usecases.RecorderCollection, error) {
	return usecases.SetUpRecorders(cfg.Recorders, suppliers, database, factory)
}

func provideGetVersion() *usecases.GetVersion {
	return usecases.NewGetVersion(node.Version)
}
