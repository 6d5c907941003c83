package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/haikunft/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS mints (
	id TEXT PRIMARY KEY,
	token_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	haiku TEXT NOT NULL,
	media TEXT NOT NULL DEFAULT '',
	tx_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_mints_token_created ON mints(token_id, created_at DESC);
`

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool
// and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RecordMint inserts a mint record.
func (s *PostgresStore) RecordMint(ctx context.Context, m *models.Mint) error {
	if err := prepareMint(m); err != nil {
		return err
	}
	defer observe("record_mint", time.Now())

	_, err := s.pool.Exec(ctx, `
		INSERT INTO mints (id, token_id, account_id, title, haiku, media, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TokenID.String(), m.AccountID, m.Title, m.Haiku, m.MediaURL, m.TxHash, m.CreatedAt)
	return err
}

// ListMints returns the mints recorded for a token, newest first.
func (s *PostgresStore) ListMints(ctx context.Context, tokenID models.TokenID, limit int) ([]models.Mint, error) {
	defer observe("list_mints", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, token_id, account_id, title, haiku, media, tx_hash, created_at
		FROM mints
		WHERE token_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, tokenID.String(), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanPostgresMints(rows)
}

// RecentMints returns the latest mints across all tokens.
func (s *PostgresStore) RecentMints(ctx context.Context, limit int) ([]models.Mint, error) {
	defer observe("recent_mints", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT id, token_id, account_id, title, haiku, media, tx_hash, created_at
		FROM mints
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return scanPostgresMints(rows)
}

// CountMints returns aggregate counts over the audit log.
func (s *PostgresStore) CountMints(ctx context.Context) (MintCounts, error) {
	defer observe("count_mints", time.Now())

	var counts MintCounts
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT token_id), MAX(created_at) FROM mints
	`).Scan(&counts.Mints, &counts.Tokens, &counts.Last)
	if err != nil {
		return MintCounts{}, err
	}
	return counts, nil
}

func scanPostgresMints(rows pgx.Rows) ([]models.Mint, error) {
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
