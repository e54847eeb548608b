// Package dbtest provides a throwaway SQLite database for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jcmexdev/storefront/internal/pkg/database"
)

// Open returns a migrated in-memory SQLite database closed at test end.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), string(database.DialectSQLite), ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
