package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/haikunft/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/haikunft.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/haikunft.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS mints (
		id TEXT PRIMARY KEY,
		token_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		haiku TEXT NOT NULL,
		media TEXT NOT NULL DEFAULT '',
		tx_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_mints_token_created ON mints(token_id, created_at DESC);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordMint inserts a mint record.
func (s *SQLiteStore) RecordMint(ctx context.Context, m *models.Mint) error {
	if err := prepareMint(m); err != nil {
		return err
	}
	defer observe("record_mint", time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mints (id, token_id, account_id, title, haiku, media, tx_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TokenID.String(), m.AccountID, m.Title, m.Haiku, m.MediaURL, m.TxHash, m.CreatedAt)
	return err
}

// ListMints returns the mints recorded for a token, newest first.
func (s *SQLiteStore) ListMints(ctx context.Context, tokenID models.TokenID, limit int) ([]models.Mint, error) {
	defer observe("list_mints", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token_id, account_id, title, haiku, media, tx_hash, created_at
		FROM mints
		WHERE token_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, tokenID.String(), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSQLiteMints(rows)
}

// RecentMints returns the latest mints across all tokens.
func (s *SQLiteStore) RecentMints(ctx context.Context, limit int) ([]models.Mint, error) {
	defer observe("recent_mints", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token_id, account_id, title, haiku, media, tx_hash, created_at
		FROM mints
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanSQLiteMints(rows)
}

// CountMints returns aggregate counts over the audit log.
func (s *SQLiteStore) CountMints(ctx context.Context) (MintCounts, error) {
	defer observe("count_mints", time.Now())

	var counts MintCounts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT token_id) FROM mints
	`).Scan(&counts.Mints, &counts.Tokens)
	if err != nil {
		return MintCounts{}, err
	}
	if counts.Mints == 0 {
		return counts, nil
	}

	var last time.Time
	err = s.db.QueryRowContext(ctx, `
		SELECT created_at FROM mints ORDER BY created_at DESC LIMIT 1
	`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return MintCounts{}, err
	}
	if err == nil {
		counts.Last = &last
	}
	return counts, nil
}

func scanSQLiteMints(rows *sql.Rows) ([]models.Mint, error) {
	defer rows.Close()

	mints := []models.Mint{}
	for rows.Next() {
		var m models.Mint
		var token string
		if err := rows.Scan(&m.ID, &token, &m.AccountID, &m.Title, &m.Haiku, &m.MediaURL, &m.TxHash, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.TokenID = models.TokenID(token)
		mints = append(mints, m)
	}

	return mints, rows.Err()
}
