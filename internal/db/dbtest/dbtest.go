// Package dbtest connects repository tests to a real PostgreSQL.
//
// Tests are skipped unless TEST_DB_HOST is set. The remaining TEST_DB_* variables default to
// the values used by docker-compose.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/vasiliy-maslov/ecommerce-orders/internal/config"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/db"
)

var (
	once    sync.Once
	shared  *db.Postgres
	openErr error
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func configFromEnv() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            os.Getenv("TEST_DB_HOST"),
		Port:            envOr("TEST_DB_PORT", "5432"),
		User:            envOr("TEST_DB_USER", "postgres"),
		Password:        envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:          envOr("TEST_DB_NAME", "orders_test"),
		SSLMode:         envOr("TEST_DB_SSLMODE", "disable"),
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
}

// Open returns a TxManager over a migrated, empty database. Every table is truncated again
// when the test finishes.
func Open(t *testing.T) *db.TxManager {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set, skipping PostgreSQL repository test")
	}

	once.Do(func() {
		cfg := configFromEnv()
		if openErr = db.ApplyMigrations(cfg); openErr != nil {
			return
		}
		shared, openErr = db.New(context.Background(), cfg)
	})
	if openErr != nil {
		t.Fatalf("Failed to open test database: %v", openErr)
	}

	truncate(t)
	t.Cleanup(func() { truncate(t) })

	return db.NewTxManager(shared.Pool)
}

func truncate(t *testing.T) {
	t.Helper()
	_, err := shared.Pool.Exec(context.Background(),
		"TRUNCATE TABLE payments, order_items, orders, products, customers")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}
