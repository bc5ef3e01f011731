// Package integration runs the fulfillment services against a real
// PostgreSQL started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/infrastructure/migration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const postgresImage = "postgres:16-alpine"

// sharedContainer is the package-wide Postgres; tests on it isolate by tenant
var sharedContainer struct {
	sync.Mutex
	container testcontainers.Container
	dsn       string
}

// TestDB is a migrated database plus the pool the test talks to it through
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	t     *testing.T
}

func startPostgres(t *testing.T, database string) (testcontainers.Container, string) {
	t.Helper()
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase(database),
		tcpostgres.WithUsername("fulfillment"),
		tcpostgres.WithPassword("fulfillment"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start postgres")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "postgres connection string")
	}

	_, pool := connect(t, dsn)
	defer pool.Close()
	m, err := migration.Embedded(pool, zap.NewNop())
	require.NoError(t, err, "open migrator")
	// Close would take the pool down with it
	require.NoError(t, m.Up(), "apply migrations")

	return container, dsn
}

// NewTestDB starts a dedicated container, for tests that count rows across
// tenants or otherwise need the database to themselves
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	container, dsn := startPostgres(t, "fulfillment_test")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})
	return open(t, dsn)
}

// NewSharedTestDB connects to the package container, starting it on first use
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	sharedContainer.Lock()
	defer sharedContainer.Unlock()
	if sharedContainer.container == nil {
		sharedContainer.container, sharedContainer.dsn = startPostgres(t, "fulfillment_shared")
	}
	return open(t, sharedContainer.dsn)
}

// CleanupSharedContainer stops the package container; TestMain calls it
func CleanupSharedContainer() {
	sharedContainer.Lock()
	defer sharedContainer.Unlock()
	if sharedContainer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = sharedContainer.container.Terminate(ctx)
	sharedContainer.container, sharedContainer.dsn = nil, ""
}

func open(t *testing.T, dsn string) *TestDB {
	db, pool := connect(t, dsn)
	t.Cleanup(func() { _ = pool.Close() })
	return &TestDB{DB: db, SqlDB: pool, t: t}
}

// CountRows counts a tenant's rows in table
func (tdb *TestDB) CountRows(table string, tenantID uuid.UUID) int64 {
	tdb.t.Helper()
	var n int64
	require.NoError(tdb.t, tdb.DB.Table(table).Where("tenant_id = ?", tenantID).Count(&n).Error, "count %s", table)
	return n
}

// connect opens a pool sized for the concurrency tests. SQL is logged through
// the test log when TEST_DB_DEBUG is set.
func connect(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()

	sqlLog := gormlogger.Discard
	if os.Getenv("TEST_DB_DEBUG") != "" {
		sqlLog = logger.NewGormLogger(zaptest.NewLogger(t), gormlogger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: sqlLog})
	require.NoError(t, err, "connect %s", dsn)

	pool, err := db.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(20)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)
	return db, pool
}

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("container-backed test skipped in short mode")
	}
}
