// Package bunstore implements repositorycache.Repository on top of bun, with
// SQLite and PostgreSQL support.
package bunstore

import (
	"context"
	"database/sql"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-cacheaside/cache"
	"github.com/goliatone/go-cacheaside/repositorycache"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Driver names accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by Update and Remove when no row matches the key.
var ErrNotFound = errors.New("bunstore: record not found")

// Config describes the database connection.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns an in-memory SQLite configuration.
func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		DSN:    "file::memory:?cache=shared",
		// a single connection keeps one in-memory database alive
		MaxOpenConns: 1,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.MaxOpenConns, validation.Min(0)),
		validation.Field(&c.ConnMaxLifetime, validation.Min(time.Duration(0))),
	)
}

// Open connects to the database and wraps it with the dialect matching cfg.Driver.
func Open(cfg Config) (*bun.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", cfg.Driver)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	switch cfg.Driver {
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	}
}

// Store persists entities of type E in the table bun derives from E's model.
// E must be a pointer to a bun model struct.
type Store[E repositorycache.Entity[K], K comparable] struct {
	db        bun.IDB
	newRecord func() E
	keyColumn string
}

// Option configures a Store.
type Option[E repositorycache.Entity[K], K comparable] func(*Store[E, K])

// WithKeyColumn sets the column matched against keys in Find, Update and
// Remove. Default "id". The entity's GetKey must return that column's value.
func WithKeyColumn[E repositorycache.Entity[K], K comparable](column string) Option[E, K] {
	return func(s *Store[E, K]) {
		if column != "" {
			s.keyColumn = column
		}
	}
}

// New creates a Store. newRecord must return a fresh, non-nil model instance.
func New[E repositorycache.Entity[K], K comparable](db bun.IDB, newRecord func() E, opts ...Option[E, K]) *Store[E, K] {
	s := &Store[E, K]{
		db:        db,
		newRecord: newRecord,
		keyColumn: "id",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTable creates the model table if it does not exist.
func (s *Store[E, K]) CreateTable(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model(s.newRecord()).IfNotExists().Exec(ctx); err != nil {
		return errors.Wrap(err, "create table")
	}
	return nil
}

// Add inserts entity. Database-generated values such as autoincrement keys
// are written back into entity.
func (s *Store[E, K]) Add(ctx context.Context, entity E) (E, error) {
	var zero E
	if _, err := s.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return zero, errors.Wrap(err, "insert")
	}
	return entity, nil
}

// Find selects the row whose key column equals key.
func (s *Store[E, K]) Find(ctx context.Context, key K) (E, bool, error) {
	var zero E

	record := s.newRecord()
	err := s.db.NewSelect().
		Model(record).
		Where("? = ?", bun.Ident(s.keyColumn), key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.Wrapf(err, "select %s", cache.FormatKey(key))
	}
	return record, true, nil
}

// Update writes the non primary key columns of entity to the row whose key
// column equals entity.GetKey().
func (s *Store[E, K]) Update(ctx context.Context, entity E) (E, error) {
	var zero E

	res, err := s.db.NewUpdate().
		Model(entity).
		Where("? = ?", bun.Ident(s.keyColumn), entity.GetKey()).
		Exec(ctx)
	if err != nil {
		return zero, errors.Wrap(err, "update")
	}
	if err := expectRows(res, "update", entity.GetKey()); err != nil {
		return zero, err
	}
	return entity, nil
}

// Remove deletes the row whose key column equals key. Removing a missing key
// fails with ErrNotFound.
func (s *Store[E, K]) Remove(ctx context.Context, key K) error {
	res, err := s.db.NewDelete().
		Model(s.newRecord()).
		Where("? = ?", bun.Ident(s.keyColumn), key).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "delete %s", cache.FormatKey(key))
	}
	return expectRows(res, "remove", key)
}

func expectRows(res sql.Result, op string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s %s", op, cache.FormatKey(key))
	}
	return nil
}
