package persistence

import (
	"fmt"
	"io"
	"log/slog"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/sql"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/usecases"

	"github.com/google/uuid"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// NewMeasurementsDatabase builds the store named by cfg.Driver. The returned
// closer releases whatever the store holds and is always safe to call.
func NewMeasurementsDatabase(cfg config.DatabaseConfig, broker async.InternalBroker) (usecases.MeasurementsDatabase, io.Closer, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryMeasurementsDatabase(cfg, broker), nopCloser{}, nil
	case DriverSQLite:
		orm, err := sql.NewMemoryORM("measurements-"+uuid.NewString(), cfg.QueryTimeout)
		if err != nil {
			return nil, nil, err
		}
		database, err := NewSQLMeasurementsDatabase(orm, cfg, broker)
		if err != nil {
			orm.Close()
			return nil, nil, err
		}
		slog.Info("measurements stored in sqlite", slog.Duration("query_timeout", cfg.QueryTimeout))
		return database, orm, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown database driver %q", domain.ErrInvalidConfig, cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
