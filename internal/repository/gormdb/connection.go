package gormdb

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Options struct {
	Driver         string
	DSN            string
	PoolSize       int
	AcquireTimeout time.Duration
	Logger         logger.Interface
	Observer       PoolObserver
}

func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(SQLiteDSN(dsn)), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// sqliteDefaults make concurrent writers wait for the lock instead of failing,
// and let readers proceed during a write.
var sqliteDefaults = []struct{ key, value string }{
	{"_busy_timeout", "5000"},
	{"_journal_mode", "WAL"},
	{"_txlock", "immediate"},
}

// SQLiteDSN adds the default connection parameters the DSN does not already
// set.
func SQLiteDSN(dsn string) string {
	for _, p := range sqliteDefaults {
		if strings.Contains(dsn, p.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

// Open connects to the configured store and wraps it in a Pool. Schema
// migrations are not applied; call Migrate.
func Open(opts Options) (*Pool, error) {
	dialector, err := Dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	return OpenDialector(dialector, opts)
}

func OpenDialector(dialector gorm.Dialector, opts Options) (*Pool, error) {
	gormLogger := opts.Logger
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.PoolSize > 0 {
		sqlDB.SetMaxOpenConns(opts.PoolSize)
		sqlDB.SetMaxIdleConns(opts.PoolSize)
	}

	pool := NewPool(db, opts.PoolSize, opts.AcquireTimeout, opts.Observer)
	if dialector.Name() == DriverSQLite {
		// SQLite has a single write lock per database file.
		pool.writer = semaphore.NewWeighted(1)
	}
	return pool, nil
}
