package store

import (
	"autosales/internal/observability"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
)

// TestDB wraps a test database instance
type TestDB struct {
	db     *sqlx.DB
	logger *observability.Logger
	Store  Store
}

// SetupTestDB creates a test database connection. It expects a running
// PostgreSQL instance, configurable via TEST_DB_* environment variables.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	logger := observability.NewLogger()

	db, err := setupPostgresDB(t)
	if err != nil {
		t.Fatalf("failed to setup test database: %v", err)
	}

	store := Store{db: db, logger: logger}

	return &TestDB{
		db:     db,
		logger: logger,
		Store:  store,
	}
}

func setupPostgresDB(t *testing.T) (*sqlx.DB, error) {
	t.Helper()

	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPass := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "autosales_user"
	}
	if dbPass == "" {
		dbPass = "autosales_password"
	}
	if dbName == "" {
		dbName = "autosales_db"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	db, err := sqlx.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db, nil
}

// Truncate clears all data from tables while preserving schema
func (tdb *TestDB) Truncate(t *testing.T, tables ...string) {
	t.Helper()

	if len(tables) == 0 {
		// Reverse dependency order
		tables = []string{
			"messages",
			"campaigns",
			"templates",
			"contacts",
			"users",
		}
	}

	for _, table := range tables {
		_, err := tdb.db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			// Skip if table doesn't exist
			if !strings.Contains(err.Error(), "does not exist") {
				t.Fatalf("failed to truncate table %s: %v", table, err)
			}
		}
	}
}

// Close closes the database connection
func (tdb *TestDB) Close() error {
	return tdb.db.Close()
}

// GetDB returns the underlying sqlx.DB for direct access if needed
func (tdb *TestDB) GetDB() *sqlx.DB {
	return tdb.db
}

// ExecSQL executes raw SQL for test setup
func (tdb *TestDB) ExecSQL(t *testing.T, query string, args ...interface{}) sql.Result {
	t.Helper()
	result, err := tdb.db.Exec(query, args...)
	if err != nil {
		t.Fatalf("failed to execute SQL: %v", err)
	}
	return result
}

// WithContext returns a context for testing
func (tdb *TestDB) WithContext() context.Context {
	return context.Background()
}
