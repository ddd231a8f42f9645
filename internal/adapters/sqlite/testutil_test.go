// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the SINGLE POINT where the database schema is loaded for
// tests. All test setup functions use db.GetSchemaSQL() so tests run against
// the authoritative schema; do not hardcode CREATE TABLE statements here.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/conductor/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedTrack inserts a test track and returns its ID.
func seedTrack(t *testing.T, db *sql.DB, id, status string) string {
	t.Helper()
	if id == "" {
		id = "TRACK-001"
	}
	if status == "" {
		status = "new"
	}
	_, err := db.Exec("INSERT INTO tracks (id, title, status) VALUES (?, ?, ?)", id, "Test Track "+id, status)
	if err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}
	return id
}
