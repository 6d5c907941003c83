package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/haikunft/internal/metrics"
	"github.com/eldtechnologies/haikunft/internal/models"
)

// ErrInvalidMint is returned when a mint record lacks a token or a haiku.
var ErrInvalidMint = errors.New("mint requires token id and haiku")

// MintStore is the audit log of haikus written to the ledger.
// Both PostgresStore and SQLiteStore implement this interface.
type MintStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// RecordMint assigns an ID and timestamp when missing and persists m.
	RecordMint(ctx context.Context, m *models.Mint) error
	// ListMints returns the mints of a token, newest first.
	ListMints(ctx context.Context, tokenID models.TokenID, limit int) ([]models.Mint, error)
	// RecentMints returns the latest mints across all tokens.
	RecentMints(ctx context.Context, limit int) ([]models.Mint, error)
	// CountMints returns the number of mints and distinct tokens recorded.
	CountMints(ctx context.Context) (MintCounts, error)
}

// MintCounts aggregates the audit log.
type MintCounts struct {
	Mints  int64
	Tokens int64
	// Last is the time of the newest mint, nil when there is none.
	Last *time.Time
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// prepareMint fills generated fields and validates m.
func prepareMint(m *models.Mint) error {
	if m == nil || m.TokenID.IsZero() || strings.TrimSpace(m.Haiku) == "" {
		return ErrInvalidMint
	}
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
