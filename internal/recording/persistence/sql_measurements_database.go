package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"measurements-server/cmd/config"
	"measurements-server/internal/infra/async"
	"measurements-server/internal/infra/sql"
	"measurements-server/internal/recording/domain"
	"measurements-server/internal/recording/usecases"
)

type measurementRow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	SupplierID string    `gorm:"index;not null"`
	Value      string    `gorm:"not null"`
	Timestamp  time.Time `gorm:"not null"`
}

func (measurementRow) TableName() string {
	return "measurements"
}

func toMeasurementRow(measurement domain.Measurement) (measurementRow, error) {
	value, err := json.Marshal(measurement.Value)
	if err != nil {
		return measurementRow{}, fmt.Errorf("encoding value of %s: %w", measurement.SupplierID, err)
	}

	return measurementRow{
		SupplierID: measurement.SupplierID,
		Value:      string(value),
		Timestamp:  measurement.Timestamp.UTC(),
	}, nil
}

func (r measurementRow) toDomain() (domain.Measurement, error) {
	var value any
	if err := json.Unmarshal([]byte(r.Value), &value); err != nil {
		return domain.Measurement{}, fmt.Errorf("decoding value of %s: %w", r.SupplierID, err)
	}

	return domain.NewMeasurement(r.SupplierID, value, r.Timestamp.UTC()), nil
}

var _ usecases.MeasurementsDatabase = (*SQLMeasurementsDatabase)(nil)

// SQLMeasurementsDatabase keeps the measurement log in a sql table, one row
// per measurement. Row ids follow insertion order, which is the order Latest
// reports in.
type SQLMeasurementsDatabase struct {
	orm        sql.ORM
	maxEntries int
	publisher  measurementPublisher
}

func NewSQLMeasurementsDatabase(orm sql.ORM, cfg config.DatabaseConfig, broker async.InternalBroker) (*SQLMeasurementsDatabase, error) {
	if err := orm.AutoMigrate(&measurementRow{}); err != nil {
		return nil, fmt.Errorf("migrating measurements table: %w", err)
	}

	return &SQLMeasurementsDatabase{
		orm:        orm,
		maxEntries: max(cfg.MaxEntriesPerMeasurement, 0),
		publisher:  measurementPublisher{broker: broker},
	}, nil
}

func (d *SQLMeasurementsDatabase) Record(ctx context.Context, measurement domain.Measurement) error {
	row, err := toMeasurementRow(measurement)
	if err != nil {
		return err
	}

	err = d.orm.WithContext(ctx).Transaction(func(tx sql.ORM) error {
		if err := tx.Create(&row).Error(); err != nil {
			return err
		}
		return d.trim(tx, measurement.SupplierID)
	})
	if err != nil {
		return fmt.Errorf("recording measurement of %s: %w", measurement.SupplierID, err)
	}

	d.publisher.publish(ctx, measurement)
	return nil
}

// trim drops the rows of the supplier that fall outside the retention cap.
func (d *SQLMeasurementsDatabase) trim(tx sql.ORM, supplierID string) error {
	if d.maxEntries == 0 {
		return nil
	}

	var cutoff []measurementRow
	err := tx.Where("supplier_id = ?", supplierID).
		Order("id DESC").
		Offset(d.maxEntries).
		Limit(1).
		Find(&cutoff).
		Error()
	if err != nil || len(cutoff) == 0 {
		return err
	}

	return tx.Where("supplier_id = ? AND id <= ?", supplierID, cutoff[0].ID).
		Delete(&measurementRow{}).
		Error()
}

func (d *SQLMeasurementsDatabase) Latest(ctx context.Context, supplierID string, count int) ([]domain.Measurement, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", domain.ErrInvalidArgument, count)
	}

	var rows []measurementRow
	err := d.orm.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("id DESC").
		Limit(count).
		Find(&rows).
		Error()
	if err != nil {
		return nil, fmt.Errorf("reading measurements of %s: %w", supplierID, err)
	}

	latest := make([]domain.Measurement, 0, len(rows))
	for _, row := range rows {
		measurement, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		latest = append(latest, measurement)
	}

	return latest, nil
}
