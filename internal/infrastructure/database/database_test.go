package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// openTestDB opens a throwaway registry database under t.TempDir.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "registry.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	t.Run("creates the database file", func(t *testing.T) {
		db := openTestDB(t)
		if _, err := os.Stat(db.Path()); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("creates nested directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "registry", "registry.db")
		db, err := Open(Config{Path: path, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if db.Path() != path {
			t.Errorf("Path() = %q, want %q", db.Path(), path)
		}
	})

	t.Run("applies WAL journal mode", func(t *testing.T) {
		db := openTestDB(t)

		var mode string
		if err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("reading journal_mode: %v", err)
		}
		if mode != "wal" {
			t.Errorf("journal_mode = %q, want %q", mode, "wal")
		}
	})

	t.Run("pins the pool to one connection", func(t *testing.T) {
		db := openTestDB(t)
		if got := db.DB.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("MaxOpenConnections = %d, want 1", got)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "registry.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil connection error = %v", err)
	}
}
