package testutil

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/halewood/mediasearch/internal/config"
	"github.com/halewood/mediasearch/internal/store"
)

// OpenTestDB connects to the postgres instance named by TEST_DB_HOST and
// applies migrations. Tests are skipped when no instance is configured; the
// database needs the pgvector extension available.
func OpenTestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := store.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "mediasearch",
		Password: "mediasearch_pass",
		DBName:   "mediasearch_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := store.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}
