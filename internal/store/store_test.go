package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the entities table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE entities (
			kind TEXT NOT NULL,
			key TEXT PRIMARY KEY,
			parent_key TEXT NOT NULL,
			natural_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL DEFAULT '{}',
			created TEXT NOT NULL,
			modified TEXT NOT NULL,
			revision INTEGER NOT NULL DEFAULT 0
		) STRICT;
		CREATE INDEX idx_entities_scope ON entities(kind, parent_key, modified DESC);
		CREATE INDEX idx_entities_natural_id ON entities(kind, natural_id);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testRecord creates a record for testing.
func testRecord(kind, key, naturalID string) *Record {
	return &Record{
		Kind:      kind,
		Key:       key,
		Parent:    "root-" + kind,
		NaturalID: naturalID,
		UserID:    "user-abc",
		Data:      []byte(`{"name":"` + naturalID + `"}`),
	}
}

func TestFormatTime(t *testing.T) {
	t.Run("fixed width keeps string order chronological", func(t *testing.T) {
		whole := time.Date(2026, 5, 1, 12, 0, 5, 0, time.UTC)
		fractional := whole.Add(time.Nanosecond)

		a, b := formatTime(whole), formatTime(fractional)
		if len(a) != len(b) {
			t.Fatalf("widths differ: %q vs %q", a, b)
		}
		if !(a < b) {
			t.Errorf("formatTime(%v) = %q does not sort before %q", whole, a, b)
		}
	})

	t.Run("round-trips through the parse layout", func(t *testing.T) {
		now := time.Date(2026, 5, 1, 12, 0, 5, 123456789, time.UTC)
		parsed, err := time.Parse(time.RFC3339Nano, formatTime(now))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !parsed.Equal(now) {
			t.Errorf("round-trip = %v, want %v", parsed, now)
		}
	})
}

func TestSQLite_Insert(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	t.Run("inserts record and sets metadata", func(t *testing.T) {
		rec := testRecord("device", "key-001", "lamp")

		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}

		if rec.Revision != 0 {
			t.Errorf("Revision = %d, want 0", rec.Revision)
		}
		if rec.Created.IsZero() || rec.Modified.IsZero() {
			t.Error("expected timestamps to be set on insert")
		}
		if !rec.Created.Equal(rec.Modified) {
			t.Errorf("Created = %v, Modified = %v, want equal", rec.Created, rec.Modified)
		}

		got, err := s.Get(ctx, "device", "key-001")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.NaturalID != "lamp" {
			t.Errorf("NaturalID = %q, want %q", got.NaturalID, "lamp")
		}
		if string(got.Data) != `{"name":"lamp"}` {
			t.Errorf("Data = %s, want %s", got.Data, `{"name":"lamp"}`)
		}
	})

	t.Run("returns error for duplicate key", func(t *testing.T) {
		rec := testRecord("device", "key-dup", "first")
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("first Insert() error = %v", err)
		}

		rec2 := testRecord("device", "key-dup", "second")
		if err := s.Insert(ctx, rec2); err == nil {
			t.Error("expected error for duplicate key, got nil")
		}
	})
}

func TestSQLite_Update(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	t.Run("updates data and bumps modified", func(t *testing.T) {
		rec := testRecord("device", "key-upd", "lamp")
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		created := rec.Created

		time.Sleep(5 * time.Millisecond)

		rec.Data = []byte(`{"name":"lamp","resource":"hall"}`)
		rec.Revision = 1
		if err := s.Update(ctx, rec); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := s.Get(ctx, "device", "key-upd")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Revision != 1 {
			t.Errorf("Revision = %d, want 1", got.Revision)
		}
		if !got.Modified.After(created) {
			t.Errorf("Modified = %v, want after %v", got.Modified, created)
		}
		if !got.Created.Equal(created.Truncate(0)) && !got.Created.Equal(created) {
			t.Errorf("Created changed on update: %v != %v", got.Created, created)
		}
		if string(got.Data) != `{"name":"lamp","resource":"hall"}` {
			t.Errorf("Data = %s", got.Data)
		}
	})

	t.Run("returns ErrRecordNotFound for missing key", func(t *testing.T) {
		rec := testRecord("device", "key-missing", "ghost")
		err := s.Update(ctx, rec)
		if !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Update() error = %v, want ErrRecordNotFound", err)
		}
	})
}

func TestSQLite_Get(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	t.Run("returns ErrRecordNotFound for missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "device", "nope")
		if !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Get() error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("does not cross kinds", func(t *testing.T) {
		rec := testRecord("device", "key-kind", "lamp")
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}

		_, err := s.Get(ctx, "user", "key-kind")
		if !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Get() with wrong kind error = %v, want ErrRecordNotFound", err)
		}
	})
}

func TestSQLite_ListByScope(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	t.Run("empty scope yields empty result", func(t *testing.T) {
		records, err := s.ListByScope(ctx, "device", "root-empty")
		if err != nil {
			t.Fatalf("ListByScope() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records, want 0", len(records))
		}
	})

	t.Run("orders by modified descending", func(t *testing.T) {
		for _, id := range []string{"one", "two", "three"} {
			rec := testRecord("device", "key-"+id, id)
			if err := s.Insert(ctx, rec); err != nil {
				t.Fatalf("Insert(%s) error = %v", id, err)
			}
			time.Sleep(2 * time.Millisecond)
		}

		// Touch the oldest so it sorts first.
		first, err := s.Get(ctx, "device", "key-one")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		first.Revision++
		if err := s.Update(ctx, first); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		records, err := s.ListByScope(ctx, "device", "root-device")
		if err != nil {
			t.Fatalf("ListByScope() error = %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want 3", len(records))
		}
		if records[0].Key != "key-one" {
			t.Errorf("records[0].Key = %q, want %q", records[0].Key, "key-one")
		}
		for i := 1; i < len(records); i++ {
			if records[i].Modified.After(records[i-1].Modified) {
				t.Errorf("records not in modified DESC order at index %d", i)
			}
		}
	})

	t.Run("scopes by parent", func(t *testing.T) {
		rec := testRecord("dmessage", "key-msg", "key-msg")
		rec.Parent = "device-parent-key"
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}

		records, err := s.ListByScope(ctx, "dmessage", "device-parent-key")
		if err != nil {
			t.Fatalf("ListByScope() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}

		records, err = s.ListByScope(ctx, "dmessage", "other-parent")
		if err != nil {
			t.Fatalf("ListByScope() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("got %d records in foreign scope, want 0", len(records))
		}
	})
}

func TestSQLite_KeysByNaturalID(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	for i, key := range []string{"key-a", "key-b"} {
		rec := testRecord("config", key, "active")
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	other := testRecord("config", "key-c", "default")
	if err := s.Insert(ctx, other); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	keys, err := s.KeysByNaturalID(ctx, "config", "active")
	if err != nil {
		t.Fatalf("KeysByNaturalID() error = %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if keys[0] != "key-b" {
		t.Errorf("keys[0] = %q, want most recently modified %q", keys[0], "key-b")
	}

	keys, err = s.KeysByNaturalID(ctx, "config", "nonexistent")
	if err != nil {
		t.Fatalf("KeysByNaturalID() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("got %d keys for unknown natural id, want 0", len(keys))
	}
}

func TestSQLite_KeysByField(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	rec := testRecord("subscription", "key-sub1", "key-sub1")
	rec.Data = []byte(`{"topic":"news","dev_id":"aa","pub_id":"pub-1"}`)
	if err := s.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	rec2 := testRecord("subscription", "key-sub2", "key-sub2")
	rec2.Data = []byte(`{"topic":"sport","dev_id":"bb","pub_id":"pub-2"}`)
	if err := s.Insert(ctx, rec2); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	keys, err := s.KeysByField(ctx, "subscription", "pub_id", "pub-1")
	if err != nil {
		t.Fatalf("KeysByField() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "key-sub1" {
		t.Errorf("keys = %v, want [key-sub1]", keys)
	}
}

func TestSQLite_KeysByUserID(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	mine := testRecord("device", "key-mine", "aa")
	mine.UserID = "hash-me"
	if err := s.Insert(ctx, mine); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	theirs := testRecord("device", "key-theirs", "bb")
	theirs.UserID = "hash-them"
	if err := s.Insert(ctx, theirs); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	keys, err := s.KeysByUserID(ctx, "device", "hash-me")
	if err != nil {
		t.Fatalf("KeysByUserID() error = %v", err)
	}
	if len(keys) != 1 || keys[0] != "key-mine" {
		t.Errorf("keys = %v, want [key-mine]", keys)
	}
}

func TestSQLite_DeleteKeys(t *testing.T) {
	db := setupTestDB(t)
	s := NewSQLite(db)
	ctx := context.Background()

	for _, key := range []string{"key-1", "key-2", "key-3"} {
		rec := testRecord("device", key, key)
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	t.Run("deletes given keys", func(t *testing.T) {
		n, err := s.DeleteKeys(ctx, "device", []string{"key-1", "key-3"})
		if err != nil {
			t.Fatalf("DeleteKeys() error = %v", err)
		}
		if n != 2 {
			t.Errorf("deleted = %d, want 2", n)
		}

		if _, err := s.Get(ctx, "device", "key-2"); err != nil {
			t.Errorf("Get() surviving key error = %v", err)
		}
		if _, err := s.Get(ctx, "device", "key-1"); !errors.Is(err, ErrRecordNotFound) {
			t.Errorf("Get() deleted key error = %v, want ErrRecordNotFound", err)
		}
	})

	t.Run("missing keys are not an error", func(t *testing.T) {
		n, err := s.DeleteKeys(ctx, "device", []string{"no-such-key"})
		if err != nil {
			t.Fatalf("DeleteKeys() error = %v", err)
		}
		if n != 0 {
			t.Errorf("deleted = %d, want 0", n)
		}
	})

	t.Run("empty key list is a no-op", func(t *testing.T) {
		n, err := s.DeleteKeys(ctx, "device", nil)
		if err != nil {
			t.Fatalf("DeleteKeys() error = %v", err)
		}
		if n != 0 {
			t.Errorf("deleted = %d, want 0", n)
		}
	})
}
