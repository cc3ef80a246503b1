package gallery

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

const sqliteBusyCode = 5

// ErrSchemaMismatch indicates the database was created by an incompatible
// version of the application.
var ErrSchemaMismatch = errors.New("gallery: database schema version mismatch")

// Store persists gallery records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the gallery database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("gallery: database path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("gallery: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("gallery: apply %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem location of the database.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) initSchema() error {
	var name string
	err := s.db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.createSchema()
	case err != nil:
		return fmt.Errorf("gallery: inspect schema: %w", err)
	}

	var version int
	if err := s.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.createSchema()
		}
		return fmt.Errorf("gallery: read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: have %d, want %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("gallery: begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("gallery: create schema: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, schemaVersion,
	); err != nil {
		return fmt.Errorf("gallery: record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("gallery: commit schema: %w", err)
	}
	return nil
}

const recordColumns = `id, url, endpoint, prompt, file_name, metadata_json, saved_at`

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec          Record
		endpoint     sql.NullString
		prompt       sql.NullString
		fileName     sql.NullString
		metadataJSON sql.NullString
		savedAt      string
	)
	if err := scanner.Scan(
		&rec.ID, &rec.URL, &endpoint, &prompt, &fileName, &metadataJSON, &savedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Endpoint = endpoint.String
	rec.Prompt = prompt.String
	rec.FileName = fileName.String
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return Record{}, fmt.Errorf("decode metadata for record %d: %w", rec.ID, err)
		}
	}
	parsed, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse saved_at for record %d: %w", rec.ID, err)
	}
	rec.SavedAt = parsed
	return rec, nil
}

// Insert stores a record and returns it with its assigned ID. A zero SavedAt
// is stamped with the current time.
func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	ctx = ensureContext(ctx)

	url := strings.TrimSpace(rec.URL)
	if url == "" {
		return Record{}, fmt.Errorf("gallery: image URL is required")
	}
	savedAt := rec.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	var metadataJSON any
	if len(rec.Metadata) > 0 {
		encoded, err := json.Marshal(rec.Metadata)
		if err != nil {
			return Record{}, fmt.Errorf("gallery: encode metadata: %w", err)
		}
		metadataJSON = string(encoded)
	}

	var id int64
	err := retryOnBusy(ctx, func() error {
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO images (url, endpoint, prompt, file_name, metadata_json, saved_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			url,
			nullableString(rec.Endpoint),
			nullableString(rec.Prompt),
			nullableString(rec.FileName),
			metadataJSON,
			savedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return Record{}, fmt.Errorf("gallery: insert record: %w", err)
	}
	return s.Get(ctx, id)
}

// Get loads a single record by ID.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM images WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("gallery: record %d not found", id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("gallery: load record %d: %w", id, err)
	}
	return rec, nil
}

// ContainsURL reports whether any record stores the given URL. The URL is
// compared after trimming surrounding whitespace.
func (s *Store) ContainsURL(ctx context.Context, url string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM images WHERE url = ?`, strings.TrimSpace(url),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("gallery: check URL: %w", err)
	}
	return count > 0, nil
}

// List returns every record, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM images ORDER BY saved_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("gallery: list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("gallery: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("gallery: iterate records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM images`).Scan(&count); err != nil {
		return 0, fmt.Errorf("gallery: count records: %w", err)
	}
	return count, nil
}

// Delete removes the records with the given IDs. IDs that do not exist are
// ignored. It returns the number of rows actually removed.
func (s *Store) Delete(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var deleted int64
	err := retryOnBusy(ctx, func() error {
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM images WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("gallery: delete records: %w", err)
	}
	return deleted, nil
}

// DeleteSavedAt removes the records stamped with the given save time.
func (s *Store) DeleteSavedAt(ctx context.Context, savedAt time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	var deleted int64
	err := retryOnBusy(ctx, func() error {
		result, err := s.db.ExecContext(ctx,
			`DELETE FROM images WHERE saved_at = ?`,
			savedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("gallery: delete records by timestamp: %w", err)
	}
	return deleted, nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM images`)
		return err
	})
	if err != nil {
		return fmt.Errorf("gallery: clear records: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func nullableString(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	backoff := 10 * time.Millisecond
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if err = op(); err == nil || !isSQLiteBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
	return err
}
