// Package session persists recognition results so finished transcripts
// survive application restarts.
package session

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"flowtext/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users must delete the library database after a bump.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an
// incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates the requested result does not exist.
var ErrNotFound = errors.New("result not found")

// Result is one stored recognition outcome.
type Result struct {
	ID         string    `json:"id"`
	VideoPath  string    `json:"videoPath"`
	AudioPath  string    `json:"audioPath"`
	Engine     string    `json:"engine"`
	Language   string    `json:"language"`
	ModelSize  string    `json:"modelSize"`
	EntryCount int       `json:"entryCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store manages the result library backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the library database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SaveResult stores one recognition outcome with its subtitles and
// returns the new result id.
func (s *Store) SaveResult(ctx context.Context, result Result, subtitles []domain.Subtitle) (string, error) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now().UTC()
	}
	result.EntryCount = len(subtitles)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (id, video_path, audio_path, engine, language, model_size, entry_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.VideoPath, result.AudioPath, result.Engine,
		result.Language, result.ModelSize, result.EntryCount,
		result.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("insert result: %w", err)
	}

	for i, sub := range subtitles {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO subtitles (result_id, position, entry_id, start_time, end_time, text)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			result.ID, i, sub.ID, sub.StartTime, sub.EndTime, sub.Text)
		if err != nil {
			return "", fmt.Errorf("insert subtitle %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit result: %w", err)
	}
	return result.ID, nil
}

// Results lists stored results, newest first.
func (s *Store) Results(ctx context.Context) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, video_path, audio_path, engine, language, model_size, entry_count, created_at
		 FROM results ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var createdAt string
		if err := rows.Scan(&r.ID, &r.VideoPath, &r.AudioPath, &r.Engine,
			&r.Language, &r.ModelSize, &r.EntryCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Subtitles returns the stored entries of one result in order.
func (s *Store) Subtitles(ctx context.Context, resultID string) ([]domain.Subtitle, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM results WHERE id = ?", resultID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check result: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, resultID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, start_time, end_time, text
		 FROM subtitles WHERE result_id = ? ORDER BY position`, resultID)
	if err != nil {
		return nil, fmt.Errorf("query subtitles: %w", err)
	}
	defer rows.Close()

	var subtitles []domain.Subtitle
	for rows.Next() {
		var sub domain.Subtitle
		if err := rows.Scan(&sub.ID, &sub.StartTime, &sub.EndTime, &sub.Text); err != nil {
			return nil, fmt.Errorf("scan subtitle: %w", err)
		}
		subtitles = append(subtitles, sub)
	}
	return subtitles, rows.Err()
}

// Delete removes one result and its subtitles.
func (s *Store) Delete(ctx context.Context, resultID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE id = ?", resultID)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, resultID)
	}
	return nil
}

// Clear removes every stored result.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM results"); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}
	return nil
}
