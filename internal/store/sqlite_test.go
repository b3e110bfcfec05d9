package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/payoff"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "positions.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func straddle(t *testing.T) payoff.Position {
	t.Helper()
	p, err := payoff.NewPortfolio(payoff.NewPut(100, 4), payoff.NewCall(100, 5))
	require.NoError(t, err)
	return p
}

func TestSaveAndGetPortfolio(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.SavePortfolio(ctx, "straddle", straddle(t), "long vol at 100")
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "straddle", saved.Name)
	assert.Equal(t, "portfolio(put:100@4,call:100@5)", saved.Notation)
	assert.Equal(t, "long vol at 100", saved.Description)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := s.GetPortfolio(ctx, "straddle")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)

	pos, err := got.Position()
	require.NoError(t, err)
	assert.Equal(t, straddle(t).ValueAt(80), pos.ValueAt(80))
	assert.Equal(t, straddle(t).Cost(), pos.Cost())
}

func TestSaveReplacesByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.SavePortfolio(ctx, "hedge", payoff.NewPut(90, 0), "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := s.SavePortfolio(ctx, "hedge", payoff.NewShort(payoff.NewCall(120, 2)), "covered")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "short(call:120@2)", second.Notation)
	assert.Equal(t, "covered", second.Description)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

	list, err := s.ListPortfolios(ctx, PortfolioFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListPortfolios(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"spread-bull", "collar", "spread-bear"} {
		_, err := s.SavePortfolio(ctx, name, payoff.NewCall(100, 0), "")
		require.NoError(t, err)
	}

	all, err := s.ListPortfolios(ctx, PortfolioFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "collar", all[0].Name)
	assert.Equal(t, "spread-bear", all[1].Name)

	spreads, err := s.ListPortfolios(ctx, PortfolioFilter{Prefix: "spread-"})
	require.NoError(t, err)
	assert.Len(t, spreads, 2)

	limited, err := s.ListPortfolios(ctx, PortfolioFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeletePortfolio(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SavePortfolio(ctx, "temp", payoff.NewPut(50, 0), "")
	require.NoError(t, err)

	require.NoError(t, s.DeletePortfolio(ctx, "temp"))

	_, err = s.GetPortfolio(ctx, "temp")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = s.DeletePortfolio(ctx, "temp")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	var storeErr *apperrors.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "delete", storeErr.Operation)
}

func TestSaveRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, name := range []string{"", "two words", string(make([]byte, maxNameLength+1))} {
		_, err := s.SavePortfolio(ctx, name, payoff.NewPut(50, 0), "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, "name %q", name)
	}

	_, err := s.SavePortfolio(ctx, "nil", nil, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListPortfolios(ctx, PortfolioFilter{})
	assert.Error(t, err)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isBusy(fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.False(t, isBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, isBusy(errors.New("disk on fire")))
	assert.False(t, isBusy(nil))
}
