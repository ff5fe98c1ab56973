// Package store persists translations so an item is never sent to the LLM
// twice. The cache is keyed by item ID and survives restarts.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/kriptoskop/kriptoskop/pkg/domain"
)

//go:embed schema.sql
var schema string

// Store is a sqlite-backed translation cache
type Store struct {
	conn *sqlx.DB
}

// Config represents database configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New opens the database, applies pragmas and creates the schema
func New(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:kriptoskop.db?cache=shared&mode=rwc"
	}

	conn, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

type translationRow struct {
	Summary   string `db:"summary"`
	Sentiment string `db:"sentiment"`
}

// Get returns the cached translation for the item ID, found reports whether
// one exists
func (s *Store) Get(ctx context.Context, itemID string) (tr domain.Translation, found bool, err error) {
	var row translationRow
	err = s.conn.GetContext(ctx, &row, "SELECT summary, sentiment FROM translations WHERE item_id = ?", itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Translation{}, false, nil
	}
	if err != nil {
		return domain.Translation{}, false, fmt.Errorf("get translation: %w", err)
	}
	return domain.Translation{Summary: row.Summary, Sentiment: domain.Sentiment(row.Sentiment)}, true, nil
}

// Set stores a translation, replacing any previous one for the same item.
// Writes retry on transient sqlite busy errors.
func (s *Store) Set(ctx context.Context, itemID string, tr domain.Translation) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		_, err := s.conn.ExecContext(ctx,
			`INSERT INTO translations (item_id, summary, sentiment) VALUES (?, ?, ?)
			 ON CONFLICT(item_id) DO UPDATE SET summary = excluded.summary, sentiment = excluded.sentiment`,
			itemID, tr.Summary, string(tr.Sentiment))
		if err != nil {
			return fmt.Errorf("set translation: %w", err)
		}
		return nil
	})
}

// Cleanup removes translations older than the retention window
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	// created_at is stored in sqlite's CURRENT_TIMESTAMP text format,
	// compare in the same format
	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")
	res, err := s.conn.ExecContext(ctx, "DELETE FROM translations WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup translations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
