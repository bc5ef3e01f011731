package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erp/fulfillment/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the shared connection pool behind every repository
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// NewDatabase connects to PostgreSQL and sizes the pool from cfg. With a nil
// gormLogger GORM stays silent.
func NewDatabase(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	return open(postgres.Open(cfg.DSN()), cfg, gormLogger)
}

func open(dialector gorm.Dialector, cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Discard
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		// every write already runs inside an explicit unit of work
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		DisableAutomaticPing:   true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	d := &Database{DB: db, sql: pool}
	if err := d.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("database %s:%d unreachable: %w", cfg.Host, cfg.Port, err)
	}
	return d, nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Stats exposes the pool counters for diagnostics
func (d *Database) Stats() sql.DBStats {
	return d.sql.Stats()
}

func (d *Database) Close() error {
	return d.sql.Close()
}
