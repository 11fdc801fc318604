package db

import (
	"context"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied
// and the default items seeded.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(string(SQLite), ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	if _, err := SeedItems(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("seeding test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
