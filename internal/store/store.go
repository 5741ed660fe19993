package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is one persisted entity instance. The domain fields live in the
// Data document; the store manages the metadata columns (timestamps and
// revision) itself on write.
type Record struct {
	// Kind is the entity type tag.
	Kind string

	// Key is the opaque store key, unique across all records.
	Key string

	// Parent is the ancestor scope: the owning record's key for nested
	// resources, or the kind's root scope id for top-level records.
	Parent string

	// NaturalID is the externally meaningful identifier, indexed for
	// lookups. For key-addressed kinds it equals Key.
	NaturalID string

	// UserID is the hashed identity of the writer.
	UserID string

	// Data is the JSON document of domain fields.
	Data []byte

	Created  time.Time
	Modified time.Time
	Revision int64
}

// Store defines the persistence operations the generic adapter requires:
// ancestor-scoped listing ordered by modification time, key fetch,
// natural-id key queries, field queries, and multi-delete.
type Store interface {
	// Insert persists a new record. Created and Modified are set to the
	// write time and Revision to 0.
	Insert(ctx context.Context, rec *Record) error

	// Update overwrites an existing record's data, user id and revision,
	// setting Modified to the write time. Returns ErrRecordNotFound if
	// the key does not exist.
	Update(ctx context.Context, rec *Record) error

	// Get fetches one record by key. Returns ErrRecordNotFound if absent.
	Get(ctx context.Context, kind, key string) (*Record, error)

	// ListByScope returns all records of a kind under an ancestor scope,
	// most recently modified first. An empty scope yields an empty slice.
	ListByScope(ctx context.Context, kind, parent string) ([]*Record, error)

	// KeysByScope returns only the keys of ListByScope.
	KeysByScope(ctx context.Context, kind, parent string) ([]string, error)

	// KeysByNaturalID returns the keys of all records of a kind with the
	// given natural id, most recently modified first.
	KeysByNaturalID(ctx context.Context, kind, naturalID string) ([]string, error)

	// KeysByField returns the keys of all records of a kind whose data
	// document has the given value at a top-level field.
	KeysByField(ctx context.Context, kind, field, value string) ([]string, error)

	// KeysByUserID returns the keys of all records of a kind written by
	// the given hashed user id.
	KeysByUserID(ctx context.Context, kind, userID string) ([]string, error)

	// DeleteKeys removes the given records of a kind, returning the
	// number actually deleted. Missing keys are not an error.
	DeleteKeys(ctx context.Context, kind string, keys []string) (int64, error)
}

// ErrRecordNotFound is returned when a key does not exist.
var ErrRecordNotFound = errors.New("store: record not found")

const recordColumns = "kind, key, parent_key, natural_id, user_id, data, created, modified, revision"

// SQLite implements Store on an entities table. Timestamps are stored
// as fixed-width RFC 3339 strings with nanosecond precision, so an
// update within the same second still yields modified > created and
// string comparison orders them chronologically.
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed store. The db parameter should be an
// open connection with the entities table migrated.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Insert persists a new record.
func (s *SQLite) Insert(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	rec.Created = now
	rec.Modified = now
	rec.Revision = 0

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Kind,
		rec.Key,
		rec.Parent,
		rec.NaturalID,
		rec.UserID,
		string(rec.Data),
		formatTime(rec.Created),
		formatTime(rec.Modified),
		rec.Revision,
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Update overwrites an existing record.
func (s *SQLite) Update(ctx context.Context, rec *Record) error {
	rec.Modified = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE entities
		SET natural_id = ?, user_id = ?, data = ?, modified = ?, revision = ?
		WHERE kind = ? AND key = ?`,
		rec.NaturalID,
		rec.UserID,
		string(rec.Data),
		formatTime(rec.Modified),
		rec.Revision,
		rec.Kind,
		rec.Key,
	)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Get fetches one record by key.
func (s *SQLite) Get(ctx context.Context, kind, key string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM entities
		WHERE kind = ? AND key = ?`,
		kind, key,
	)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying record by key: %w", err)
	}
	return rec, nil
}

// ListByScope returns all records of a kind under an ancestor scope.
func (s *SQLite) ListByScope(ctx context.Context, kind, parent string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM entities
		WHERE kind = ? AND parent_key = ?
		ORDER BY modified DESC`,
		kind, parent,
	)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// KeysByScope returns only the keys of ListByScope.
func (s *SQLite) KeysByScope(ctx context.Context, kind, parent string) ([]string, error) {
	return s.queryKeys(ctx, `
		SELECT key FROM entities
		WHERE kind = ? AND parent_key = ?
		ORDER BY modified DESC`,
		kind, parent,
	)
}

// KeysByNaturalID returns the keys of records with the given natural id.
func (s *SQLite) KeysByNaturalID(ctx context.Context, kind, naturalID string) ([]string, error) {
	return s.queryKeys(ctx, `
		SELECT key FROM entities
		WHERE kind = ? AND natural_id = ?
		ORDER BY modified DESC`,
		kind, naturalID,
	)
}

// KeysByField queries inside the JSON data document. Field names come
// from entity schemas, never from request input.
func (s *SQLite) KeysByField(ctx context.Context, kind, field, value string) ([]string, error) {
	return s.queryKeys(ctx, `
		SELECT key FROM entities
		WHERE kind = ? AND json_extract(data, ?) = ?
		ORDER BY modified DESC`,
		kind, "$."+field, value,
	)
}

// KeysByUserID returns the keys of records written by one user.
func (s *SQLite) KeysByUserID(ctx context.Context, kind, userID string) ([]string, error) {
	return s.queryKeys(ctx, `
		SELECT key FROM entities
		WHERE kind = ? AND user_id = ?
		ORDER BY modified DESC`,
		kind, userID,
	)
}

// DeleteKeys removes the given records of a kind.
func (s *SQLite) DeleteKeys(ctx context.Context, kind string, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(keys)+1)
	args = append(args, kind)
	for _, k := range keys {
		args = append(args, k)
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM entities WHERE kind = ? AND key IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (s *SQLite) queryKeys(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating keys: %w", err)
	}
	return keys, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var rec Record
	var data, created, modified string

	err := scanner.Scan(
		&rec.Kind,
		&rec.Key,
		&rec.Parent,
		&rec.NaturalID,
		&rec.UserID,
		&data,
		&created,
		&modified,
		&rec.Revision,
	)
	if err != nil {
		return nil, err
	}

	rec.Data = []byte(data)

	rec.Created, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parsing created: %w", err)
	}
	rec.Modified, err = time.Parse(time.RFC3339Nano, modified)
	if err != nil {
		return nil, fmt.Errorf("parsing modified: %w", err)
	}

	return &rec, nil
}

// timeLayout is RFC 3339 with a fixed-width nine-digit fraction.
// RFC3339Nano trims trailing zeros, which would let a whole-second
// timestamp ("...05Z") sort after a fractional one ("...05.1Z") in the
// ORDER BY modified queries; padding keeps string order chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
