package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

//go:generate mockgen -source=orm.go -destination=../../../test/unit/doubles/infra/sql/orm_mock.go -package=sql -mock_names=ORM=MockORM

type ORM interface {
	AutoMigrate(dst ...any) error
	Count(count *int64) ORM
	Create(value any) ORM
	Delete(value any, conds ...any) ORM
	Find(dest any, conds ...any) ORM
	Limit(limit int) ORM
	Model(value any) ORM
	Offset(offset int) ORM
	Order(value any) ORM
	Transaction(fc func(tx ORM) error, opts ...*sql.TxOptions) error
	Where(query any, args ...any) ORM
	WithContext(ctx context.Context) ORM

	Error() error
}

type DB struct {
	*gorm.DB
	system  string
	timeout time.Duration
}

var _ ORM = (*DB)(nil)

func (d DB) Error() error {
	if d.DB.Error != nil {
		return fmt.Errorf("database error: %w", d.DB.Error)
	}
	return nil
}

func (d DB) AutoMigrate(dst ...any) error {
	return d.DB.AutoMigrate(dst...)
}

func (d DB) Count(value *int64) ORM {
	d.finish(func(db *gorm.DB) *gorm.DB { return db.Count(value) })
	return &d
}

func (d DB) Create(value any) ORM {
	d.setSpanAttributes("create")
	d.finish(func(db *gorm.DB) *gorm.DB { return db.Create(value) })
	return &d
}

func (d DB) Delete(value any, conds ...any) ORM {
	d.setSpanAttributes("delete")
	d.finish(func(db *gorm.DB) *gorm.DB { return db.Delete(value, conds...) })
	return &d
}

func (d DB) Find(value any, conds ...any) ORM {
	d.setSpanAttributes("find")
	d.finish(func(db *gorm.DB) *gorm.DB { return db.Find(value, conds...) })
	return &d
}

func (d DB) Limit(value int) ORM {
	d.DB = d.DB.Limit(value)
	return &d
}

func (d DB) Model(value any) ORM {
	d.DB = d.DB.Model(value)
	return &d
}

func (d DB) Offset(value int) ORM {
	d.DB = d.DB.Offset(value)
	return &d
}

func (d DB) Order(value any) ORM {
	d.DB = d.DB.Order(value)
	return &d
}

func (d DB) Where(value any, conds ...any) ORM {
	d.DB = d.DB.Where(value, conds...)
	return &d
}

// WithContext binds ctx to the statement. The DB timeout, if any, is applied
// when the statement runs.
func (d DB) WithContext(ctx context.Context) ORM {
	d.DB = d.DB.WithContext(ctx)
	return &d
}

// Transaction runs f under a single deadline. Statements issued through tx
// share it and it is released once the transaction commits or rolls back.
func (d DB) Transaction(f func(ORM) error, opts ...*sql.TxOptions) error {
	db := d.DB
	if d.timeout > 0 {
		ctx, cancel := context.WithTimeout(d.statementContext(), d.timeout)
		defer cancel()
		db = db.WithContext(ctx)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		return f(&DB{DB: tx, system: d.system})
	}, opts...)
}

// finish runs a finisher under the statement timeout and releases the
// deadline as soon as the statement returns.
func (d *DB) finish(finisher func(*gorm.DB) *gorm.DB) {
	if d.timeout <= 0 {
		d.DB = finisher(d.DB)
		return
	}

	parent := d.statementContext()
	ctx, cancel := context.WithTimeout(parent, d.timeout)
	defer cancel()

	d.DB = finisher(d.DB.WithContext(ctx))
	d.DB.Statement.Context = parent
}

func (d DB) statementContext() context.Context {
	if ctx := d.DB.Statement.Context; ctx != nil {
		return ctx
	}
	return context.Background()
}

// Close releases the underlying connection pool.
func (d DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d DB) setSpanAttributes(operation string) {
	if ctx := d.DB.Statement.Context; ctx != nil {
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.String("component", "database"),
				attribute.String("db.system", d.system),
				attribute.String("db.operation", operation),
			)
		}
	}
}
