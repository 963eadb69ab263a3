package test

import (
	"context"
	"log"
	"testing"

	"tasklist/internal/adapter/database/sqlite"
)

// InitTestDB returns a migrated in-memory database.
func InitTestDB() *sqlite.DB {
	ctx := context.Background()

	db, err := sqlite.New(ctx, sqlite.Config{Path: sqlite.MemoryPath})

	if err != nil {
		log.Fatal(err)
	}

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal(err)
	}

	return db
}

// SetupTestDB opens a fresh database and closes it when t finishes.
func SetupTestDB(t testing.TB) *sqlite.DB {
	t.Helper()

	db := InitTestDB()
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// CleanDB empties every application table, keeping the migration state.
func CleanDB(t testing.TB, db *sqlite.DB) {
	t.Helper()

	for _, table := range []string{"todos", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}
