package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"mercari_watch/internal/model"
	"mercari_watch/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database. It keeps the same
// append-only contract as FileLog: rows are inserted, never updated or
// deleted.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// FilterUnseen returns the candidates that have no row in seen_listings.
func (s *SQLite) FilterUnseen(ctx context.Context, candidates []model.Listing) ([]model.Listing, error) {
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		ok, err := s.IsSeen(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		seen[c.ID] = ok
	}
	return unseen(candidates, func(id string) bool { return seen[id] }), nil
}

// RecordSent inserts the ids of items in a single transaction.
func (s *SQLite) RecordSent(ctx context.Context, items []model.Listing) error {
	return s.RecordIDs(ctx, model.IDs(items))
}

// RecordIDs inserts ids in a single transaction, ignoring ones already present.
func (s *SQLite) RecordIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_listings (id, seen_at) VALUES (?, ?)`,
			id, now,
		); err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
	}
	return tx.Commit()
}

// IsSeen checks whether a listing id has already been recorded.
func (s *SQLite) IsSeen(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM seen_listings WHERE id = ?`, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of recorded ids.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen_listings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count seen: %w", err)
	}
	return count, nil
}
