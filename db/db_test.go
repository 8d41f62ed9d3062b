// ABOUTME: Tests for opening storage backends
// ABOUTME: SQLite setup plus a round trip through every backend kind
package db

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected kv table, got %d matches", count)
	}

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	dbPath := "/invalid/nonexistent/path/that/cannot/be/created/test.db"

	_, err := OpenDatabase(dbPath)
	if err == nil {
		t.Errorf("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestOpenDatabaseTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("Initial OpenDatabase failed: %v", err)
	}
	db.Close()

	db, err = OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase should handle re-initialization gracefully, but got error: %v", err)
	}
	db.Close()
}

func testBackends(t *testing.T) map[string]Backend {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	badger, err := OpenBadger(filepath.Join(t.TempDir(), "visits"))
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlite.Close()
		_ = badger.Close()
	})

	return map[string]Backend{KindSQLite: sqlite, KindBadger: badger}
}

func TestBackendRoundTrip(t *testing.T) {
	for name, b := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := b.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("Expected ErrKeyNotFound, got %v", err)
			}

			if err := b.Set([]byte("k"), []byte("v1")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := b.Set([]byte("k"), []byte("v2")); err != nil {
				t.Fatalf("Overwrite failed: %v", err)
			}

			got, err := b.Get([]byte("k"))
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if string(got) != "v2" {
				t.Errorf("Expected v2, got %q", got)
			}

			if err := b.Delete([]byte("k")); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := b.Get([]byte("k")); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
			}
		})
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open("postgres", t.TempDir()); err == nil {
		t.Error("Expected error for unknown backend kind")
	}
}

func TestDefaultPath(t *testing.T) {
	if got := DefaultPath("/data", KindSQLite); got != filepath.Join("/data", "onsite.db") {
		t.Errorf("unexpected sqlite path %s", got)
	}
	if got := DefaultPath("/data", KindBadger); got != filepath.Join("/data", "visits") {
		t.Errorf("unexpected badger path %s", got)
	}
}
