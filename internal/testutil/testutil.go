package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dom/worknest/internal/api"
	"github.com/dom/worknest/internal/config"
	"github.com/dom/worknest/internal/logger"
	"github.com/dom/worknest/internal/metrics"
	"github.com/dom/worknest/internal/repository"
	"github.com/dom/worknest/internal/repository/gormdb"
	"github.com/dom/worknest/internal/service"
	"github.com/dom/worknest/internal/storage"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PostgresEnv switches NewTestDB from in-memory SQLite to a PostgreSQL
// testcontainer.
const PostgresEnv = "WORKNEST_TEST_POSTGRES"

// TestDB is a migrated database private to one test.
type TestDB struct {
	Container testcontainers.Container
	Pool      *gormdb.Pool
	DB        *gorm.DB
	Driver    string
	DSN       string
}

// NewTestDB returns a migrated database that is dropped when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	logger.Disable()

	var testDB *TestDB
	if os.Getenv(PostgresEnv) == "1" {
		testDB = newPostgresDB(t)
	} else {
		testDB = newSQLiteDB(t)
	}

	if err := testDB.Pool.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})
	return testDB
}

// SQLiteDSN names a private shared-cache in-memory database.
func SQLiteDSN(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=1", name, uuid.NewString()[:8])
}

func newSQLiteDB(t *testing.T) *TestDB {
	t.Helper()

	dsn := SQLiteDSN(t)
	// One connection: the in-memory database lives as long as it does, and
	// shared-cache table locks fail at once instead of honouring busy_timeout.
	pool, err := gormdb.Open(gormdb.Options{
		Driver:         gormdb.DriverSQLite,
		DSN:            dsn,
		PoolSize:       1,
		AcquireTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return &TestDB{Pool: pool, DB: pool.DB(), Driver: gormdb.DriverSQLite, DSN: dsn}
}

func newPostgresDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("test_worknest"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := gormdb.Open(gormdb.Options{
		Driver:         gormdb.DriverPostgres,
		DSN:            dsn,
		PoolSize:       5,
		AcquireTimeout: 5 * time.Second,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to database: %v", err)
	}
	return &TestDB{Container: container, Pool: pool, DB: pool.DB(), Driver: gormdb.DriverPostgres, DSN: dsn}
}

// Cleanup closes the pool and terminates the container, if any.
func (tdb *TestDB) Cleanup() {
	_ = tdb.Pool.Close()
	if tdb.Container != nil {
		_ = tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all data tables for test isolation.
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"ticket_search_tokens",
		"ticket_search_documents",
		"attachments",
		"comments",
		"tickets",
		"projects",
		"revoked_tokens",
		"users",
	}
	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// Repositories builds the repository set over the test database.
func (tdb *TestDB) Repositories() *repository.Repositories {
	return gormdb.NewRepositories(tdb.Pool)
}

// TestConfig returns a configuration suitable for testing.
func TestConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Port = "0"
	cfg.Server.Environment = "test"
	cfg.JWT.Secret = "test-jwt-secret-key-for-testing-only"
	cfg.JWT.BcryptCost = bcrypt.MinCost
	cfg.Upload.Dir = t.TempDir()
	cfg.RateLimit.AuthRPS = 1000
	cfg.RateLimit.AuthBurst = 1000
	return cfg
}

// NewTestServices wires services over a fresh test database.
func NewTestServices(t *testing.T) (*service.Services, *TestDB) {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig(t)
	services := newServices(t, testDB, cfg)
	return services, testDB
}

func newServices(t *testing.T, testDB *TestDB, cfg *config.Config) *service.Services {
	t.Helper()

	files, err := storage.NewLocalStore(cfg.Upload.Dir)
	if err != nil {
		t.Fatalf("failed to create upload store: %v", err)
	}
	services, err := service.NewServices(testDB.Repositories(), cfg, files)
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}
	return services
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Metrics  *metrics.Metrics
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, nil)
}

// NewTestServerWithConfig lets the caller adjust the test configuration
// before anything is wired.
func NewTestServerWithConfig(t *testing.T, configure func(*config.Config)) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig(t)
	if configure != nil {
		configure(cfg)
	}
	services := newServices(t, testDB, cfg)
	m := metrics.New()
	m.SetPoolSize(testDB.Pool.Size())

	router := api.NewRouter(services, cfg, testDB.Pool, m)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    services.Repos,
		Services: services,
		Metrics:  m,
		Config:   cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}
