package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/erp/fulfillment/migrations"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator moves the fulfillment schema between versions
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// Embedded opens a Migrator over the schema compiled into the binary
func Embedded(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	return Open(db, migrations.FS, logger)
}

// Open reads numbered *.up.sql / *.down.sql pairs from the root of source
func Open(db *sql.DB, source fs.FS, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{m: m, logger: logger.Named("migrate")}, nil
}

// apply runs one golang-migrate operation, treating ErrNoChange as success
func (mg *Migrator) apply(op string, fn func() error, fields ...zap.Field) error {
	mg.logger.Info("Migration started", append(fields, zap.String("op", op))...)

	err := fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.logger.Info("Schema already current", zap.String("op", op))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

func (mg *Migrator) Up() error   { return mg.apply("up", mg.m.Up) }
func (mg *Migrator) Down() error { return mg.apply("down", mg.m.Down) }

// Steps applies n migrations forward, or |n| backward when n is negative
func (mg *Migrator) Steps(n int) error {
	return mg.apply("steps", func() error { return mg.m.Steps(n) }, zap.Int("steps", n))
}

func (mg *Migrator) GoTo(version uint) error {
	return mg.apply("goto", func() error { return mg.m.Migrate(version) }, zap.Uint("target", version))
}

// Version reports the applied version; zero means nothing has run yet
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It is the way
// out of a dirty schema after a failed migration has been fixed by hand.
func (mg *Migrator) Force(version int) error {
	mg.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, not only fulfillment tables
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping all database objects")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
