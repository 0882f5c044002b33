package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testLogger struct {
	infos  []string
	warns  []string
	errors []string
}

func (l *testLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.warns = append(l.warns, msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

type fakeMigrator struct {
	upErr error
}

func (m *fakeMigrator) Up() error { return m.upErr }
func (m *fakeMigrator) Close() (error, error) {
	return nil, nil
}

type fakeSource struct {
	source.Driver
	closed atomic.Bool
}

func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

type blockingMigrator struct {
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newBlockingMigrator() *blockingMigrator {
	return &blockingMigrator{closeCh: make(chan struct{})}
}

func (m *blockingMigrator) Up() error {
	<-m.closeCh
	return nil
}

func (m *blockingMigrator) Close() (error, error) {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		close(m.closeCh)
	})
	return nil, nil
}

// stubFactories swaps the driver and source factories for fakes and restores them after the test.
func stubFactories(t *testing.T, mig migrator) *fakeSource {
	t.Helper()

	origDriverFactory := driverFactory
	origSourceFactory := sourceFactory
	origMigratorFactory := migratorFactory
	t.Cleanup(func() {
		driverFactory = origDriverFactory
		sourceFactory = origSourceFactory
		migratorFactory = origMigratorFactory
	})

	src := &fakeSource{}
	sourceFactory = func(Config) (string, source.Driver, error) { return "fake", src, nil }
	driverFactory = func(_ *sql.DB, _ Config) (database.Driver, error) { return nil, nil }
	migratorFactory = func(_ string, _ source.Driver, _ string, _ database.Driver) (migrator, error) {
		return mig, nil
	}

	return src
}

func TestUp_NilDB(t *testing.T) {
	if err := Up(context.Background(), nil, Config{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUp_UnknownDialect(t *testing.T) {
	stubFactories(t, &fakeMigrator{})

	err := Up(context.Background(), &sql.DB{}, Config{Dialect: "mysql"})
	if err == nil || !strings.Contains(err.Error(), "unsupported dialect") {
		t.Fatalf("expected unsupported dialect error, got %v", err)
	}
}

func TestUp_ContextAlreadyCancelled_ReturnsCtxErr(t *testing.T) {
	stubFactories(t, &fakeMigrator{})

	called := atomic.Bool{}
	driverFactory = func(_ *sql.DB, _ Config) (database.Driver, error) {
		called.Store(true)
		return nil, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if called.Load() {
		t.Fatalf("expected no driver/migrator creation when ctx already cancelled")
	}
}

func TestUp_ContextDeadlineExceeded_ReturnsCtxErr_AndCloses(t *testing.T) {
	block := newBlockingMigrator()
	stubFactories(t, block)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if !block.closed.Load() {
		t.Fatalf("expected migrator.Close to be attempted on ctx cancellation")
	}
}

func TestUp_ErrNoChange_ReturnsNil(t *testing.T) {
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange})
	logger := &testLogger{}

	if err := Up(context.Background(), &sql.DB{}, Config{Logger: logger}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	assert.Contains(t, logger.infos, "No migrations to apply")
}

func TestUp_Success_LogsApplied(t *testing.T) {
	stubFactories(t, &fakeMigrator{})
	logger := &testLogger{}

	if err := Up(context.Background(), &sql.DB{}, Config{Logger: logger}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	assert.Contains(t, logger.infos, "Migrations applied successfully")
}

func TestUp_DefaultsDialectAndTable(t *testing.T) {
	stubFactories(t, &fakeMigrator{upErr: migrate.ErrNoChange})

	var gotDialect string
	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		if cfg.MigrationsTable != "schema_migrations" {
			t.Fatalf("expected migrations table to be defaulted, got %q", cfg.MigrationsTable)
		}
		return nil, nil
	}
	migratorFactory = func(_ string, _ source.Driver, dialect string, _ database.Driver) (migrator, error) {
		gotDialect = dialect
		return &fakeMigrator{upErr: migrate.ErrNoChange}, nil
	}

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{}))
	assert.Equal(t, DialectPostgres, gotDialect)
}

func TestUp_MigratorInitError_ClosesSource(t *testing.T) {
	src := stubFactories(t, nil)
	migratorFactory = func(_ string, _ source.Driver, _ string, _ database.Driver) (migrator, error) {
		return nil, errors.New("boom")
	}

	err := Up(context.Background(), &sql.DB{}, Config{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "migrations: init") {
		t.Fatalf("expected wrapped init error, got %v", err)
	}
	assert.True(t, src.closed.Load())
}

func TestFileSourceURL_HandlesPathsWithSpecialCharacters(t *testing.T) {
	dirWithSpaces := filepath.Join(t.TempDir(), "my migrations dir")
	if err := os.MkdirAll(dirWithSpaces, 0755); err != nil {
		t.Fatalf("failed to create test dir: %v", err)
	}

	got, err := fileSourceURL(dirWithSpaces)
	require.NoError(t, err)

	parsedURL, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "file", parsedURL.Scheme)

	abs, _ := filepath.Abs(dirWithSpaces)
	assert.Equal(t, filepath.ToSlash(abs), parsedURL.Path)
}

func TestEmbeddedMigrations_PresentForEveryDialect(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		entries, err := embedded.ReadDir("sql/" + dialect)
		require.NoError(t, err, dialect)
		assert.Len(t, entries, 2, dialect)
	}
}

func openSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return sqlDB
}

func TestUp_EmbeddedSQLite_CreatesUniqueWaitlistTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")

	// The migrate driver closes the handle it was given once it is done.
	require.NoError(t, Up(context.Background(), openSQLite(t, path), Config{Dialect: DialectSQLite}))

	sqlDB := openSQLite(t, path)

	_, err := sqlDB.Exec(`INSERT INTO waitlist (email) VALUES ('new@x.com')`)
	require.NoError(t, err)

	_, err = sqlDB.Exec(`INSERT INTO waitlist (email) VALUES ('new@x.com')`)
	assert.Error(t, err)

	var version int
	require.NoError(t, sqlDB.QueryRow(`SELECT version FROM schema_migrations`).Scan(&version))
	assert.Equal(t, 1, version)
}
