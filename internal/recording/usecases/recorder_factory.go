package usecases

import (
	"fmt"
	"log/slog"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/utils"
	"measurements-server/internal/recording/domain"

	"github.com/robfig/cron/v3"
)

// RecorderFactory is the single place where recorder modes are resolved.
type RecorderFactory struct {
	periodicFactory *PeriodicRecorderFactory
}

func NewRecorderFactory(periodicFactory *PeriodicRecorderFactory) *RecorderFactory {
	return &RecorderFactory{
		periodicFactory: periodicFactory,
	}
}

func (f *RecorderFactory) Create(
	cfg config.RecorderConfig,
	measurementSupplier *MeasurementSupplier,
	database MeasurementsDatabase,
) (Recorder, error) {
	switch cfg.Mode {
	case RecorderModeManual:
		return NewManualRecorder(cfg.ID, measurementSupplier, database), nil
	case RecorderModePeriodic:
		return f.periodicFactory.Create(cfg.ID, measurementSupplier, database, cfg.Config)
	default:
		return nil, fmt.Errorf("%w: unknown recorder mode %q", domain.ErrUnknownMode, cfg.Mode)
	}
}

// MinInterval is the shortest accepted periodic interval. Bare numbers
// decode as nanoseconds and land below it.
const MinInterval = time.Millisecond

type PeriodicRecorderConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Schedule  string        `mapstructure:"schedule"`
	Autostart bool          `mapstructure:"autostart"`
}

// PeriodicRecorderFactory accepts either a fixed interval or a cron
// expression (seconds field optional), never both.
type PeriodicRecorderFactory struct {
	cronParser cron.Parser
}

func NewPeriodicRecorderFactory() *PeriodicRecorderFactory {
	return &PeriodicRecorderFactory{
		cronParser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (f *PeriodicRecorderFactory) Create(
	id string,
	measurementSupplier *MeasurementSupplier,
	database MeasurementsDatabase,
	params map[string]any,
) (*PeriodicRecorder, error) {
	var cfg PeriodicRecorderConfig
	if err := utils.DecodeParams(params, &cfg); err != nil {
		return nil, fmt.Errorf("%w: recorder %s: %w", domain.ErrInvalidConfig, id, err)
	}

	schedule, err := f.schedule(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: recorder %s: %w", domain.ErrInvalidConfig, id, err)
	}

	return NewPeriodicRecorder(id, measurementSupplier, database, schedule, cfg.Autostart), nil
}

func (f *PeriodicRecorderFactory) schedule(cfg PeriodicRecorderConfig) (cron.Schedule, error) {
	switch {
	case cfg.Interval != 0 && cfg.Schedule != "":
		return nil, fmt.Errorf("interval and schedule are mutually exclusive")
	case cfg.Schedule != "":
		schedule, err := f.cronParser.Parse(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parsing cron schedule: %w", err)
		}
		return schedule, nil
	case cfg.Interval < 0:
		return nil, fmt.Errorf("interval %s must be positive", cfg.Interval)
	case cfg.Interval > 0 && cfg.Interval < MinInterval:
		return nil, fmt.Errorf("interval %s is below %s, durations need a unit such as \"100ms\"", cfg.Interval, MinInterval)
	case cfg.Interval > 0:
		return IntervalSchedule{Interval: cfg.Interval}, nil
	default:
		return nil, fmt.Errorf("a positive interval or a schedule is required")
	}
}

// SetUpRecorders binds every configured recorder to its supplier and the
// shared database.
func SetUpRecorders(
	cfgs config.RecordersConfig,
	suppliers *MeasurementSupplierCollection,
	database MeasurementsDatabase,
	factory *RecorderFactory,
) (*RecorderCollection, error) {
	recorders := make([]Recorder, 0, len(cfgs))
	for _, cfg := range cfgs {
		if err := domain.ValidateID("recorder", cfg.ID); err != nil {
			return nil, err
		}

		supplier, err := suppliers.FindByID(cfg.MeasurementID)
		if err != nil {
			return nil, fmt.Errorf("recorder %s: %w", cfg.ID, err)
		}

		recorder, err := factory.Create(cfg, supplier, database)
		if err != nil {
			return nil, fmt.Errorf("creating recorder %s: %w", cfg.ID, err)
		}

		slog.Info("recorder created",
			slog.String("recorder_id", recorder.ID()),
			slog.String("mode", recorder.Mode()),
			slog.String("supplier_id", supplier.ID()))
		recorders = append(recorders, recorder)
	}

	return NewRecorderCollection(recorders...)
}
