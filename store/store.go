// Package store persists the small bits of client state worth keeping
// across runs: per-channel last-read marks and message drafts. Backed by
// SQLite so concurrent client instances on the same config dir stay sane.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store wraps the local database.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS last_read (
		channel_id TEXT PRIMARY KEY,
		post_id    TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS drafts (
		channel_id TEXT PRIMARY KEY,
		message    TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness across instances.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LastRead returns the last-read post ID for a channel, or "" if none.
func (s *Store) LastRead(ctx context.Context, channelID string) (string, error) {
	var postID string
	err := s.db.QueryRowContext(ctx,
		`SELECT post_id FROM last_read WHERE channel_id = ?`, channelID).Scan(&postID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return postID, err
}

// SetLastRead records the last-read post for a channel.
func (s *Store) SetLastRead(ctx context.Context, channelID, postID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_read (channel_id, post_id, updated_at)
		 VALUES (?, ?, unixepoch())
		 ON CONFLICT(channel_id) DO UPDATE SET post_id = excluded.post_id,
		                                       updated_at = excluded.updated_at`,
		channelID, postID)
	return err
}

// Draft returns the saved draft for a channel, or "" if none.
func (s *Store) Draft(ctx context.Context, channelID string) (string, error) {
	var msg string
	err := s.db.QueryRowContext(ctx,
		`SELECT message FROM drafts WHERE channel_id = ?`, channelID).Scan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return msg, err
}

// SetDraft saves a channel draft; an empty draft deletes the row.
func (s *Store) SetDraft(ctx context.Context, channelID, message string) error {
	if message == "" {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM drafts WHERE channel_id = ?`, channelID)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (channel_id, message, updated_at)
		 VALUES (?, ?, unixepoch())
		 ON CONFLICT(channel_id) DO UPDATE SET message = excluded.message,
		                                       updated_at = excluded.updated_at`,
		channelID, message)
	return err
}
