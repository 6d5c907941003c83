package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/haikunft/internal/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "mints.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteRecordAndListMints(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, haiku := range []string{"a / b / c", "d / e / f"} {
		m := &models.Mint{
			TokenID:   "42",
			AccountID: "alice.testnet",
			Title:     "Dusk",
			Haiku:     haiku,
			MediaURL:  "https://gateway.example/ipfs/cid",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.RecordMint(ctx, m))
		assert.NotEmpty(t, m.ID)
	}
	require.NoError(t, s.RecordMint(ctx, &models.Mint{TokenID: "7", AccountID: "bob.testnet", Haiku: "x / y / z"}))

	mints, err := s.ListMints(ctx, "42", 0)
	require.NoError(t, err)
	require.Len(t, mints, 2)
	assert.Equal(t, "d / e / f", mints[0].Haiku, "newest first")
	assert.Equal(t, models.TokenID("42"), mints[0].TokenID)
	assert.Equal(t, "https://gateway.example/ipfs/cid", mints[0].MediaURL)

	mints, err = s.ListMints(ctx, "42", 1)
	require.NoError(t, err)
	assert.Len(t, mints, 1)
}

func TestSQLiteListMintsEmpty(t *testing.T) {
	s := newTestSQLite(t)

	mints, err := s.ListMints(context.Background(), "404", 10)
	require.NoError(t, err)
	assert.NotNil(t, mints)
	assert.Empty(t, mints)
}

func TestRecordMintValidation(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.RecordMint(ctx, nil), ErrInvalidMint)
	assert.ErrorIs(t, s.RecordMint(ctx, &models.Mint{Haiku: "a / b / c"}), ErrInvalidMint)
	assert.ErrorIs(t, s.RecordMint(ctx, &models.Mint{TokenID: "1", Haiku: "  "}), ErrInvalidMint)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, clampLimit(0))
	assert.Equal(t, defaultListLimit, clampLimit(-3))
	assert.Equal(t, 5, clampLimit(5))
	assert.Equal(t, maxListLimit, clampLimit(maxListLimit+1))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Client().Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestSQLiteRecentAndCount(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	counts, err := s.CountMints(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Mints)
	assert.Nil(t, counts.Last)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, token := range []models.TokenID{"1", "2", "1"} {
		require.NoError(t, s.RecordMint(ctx, &models.Mint{
			TokenID:   token,
			AccountID: "alice.testnet",
			Haiku:     "a / b / c",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	counts, err = s.CountMints(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Mints)
	assert.Equal(t, int64(2), counts.Tokens)
	require.NotNil(t, counts.Last)
	assert.True(t, counts.Last.Equal(base.Add(2*time.Hour)))

	recent, err := s.RecentMints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.TokenID("1"), recent[0].TokenID)
	assert.Equal(t, models.TokenID("2"), recent[1].TokenID)
}
