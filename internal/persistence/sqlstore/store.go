// internal/persistence/sqlstore/store.go
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"cardledger/internal/persistence"
	"cardledger/pkg/db"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	name     TEXT PRIMARY KEY,
	body     TEXT NOT NULL,
	saved_at TEXT NOT NULL
)`

// Store keeps snapshot documents as rows of a single table.
// It works on SQLite and PostgreSQL; placeholders are rebound per driver.
type Store struct {
	db *sqlx.DB
}

// New wraps an open connection and creates the table if needed.
func New(ctx context.Context, conn *sqlx.DB) (*Store, error) {
	s := &Store{db: conn}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates the snapshots table.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	var body string
	query := s.db.Rebind(`SELECT body FROM snapshots WHERE name = ?`)
	err := s.db.GetContext(ctx, &body, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return []byte(body), nil
}

// Write upserts the document in its own transaction.
func (s *Store) Write(ctx context.Context, name string, data []byte) error {
	query := s.db.Rebind(`INSERT INTO snapshots (name, body, saved_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET body = excluded.body, saved_at = excluded.saved_at`)

	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query, name, string(data), time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("write snapshot %s: %w", name, err)
		}
		return nil
	})
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ persistence.Backend = (*Store)(nil)
