//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"example.com/wordgame/internal/game"
	"example.com/wordgame/internal/migrate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResultStore(t *testing.T) *ResultStore {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL is not set")
	}
	require.NoError(t, migrate.Up(dbURL, "", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	_, err = pool.Exec(ctx, "TRUNCATE match_results")
	require.NoError(t, err)
	return NewResultStore(pool)
}

func record(state game.MatchState, attempts uint32) game.MatchRecord {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return game.MatchRecord{
		MatchID:    uuid.NewString(),
		Challenger: uuid.NewString(),
		Guesser:    uuid.NewString(),
		Word:       "apple",
		Attempts:   attempts,
		Hints:      []string{"fruit", "red"},
		LastGuess:  "apply",
		State:      state.String(),
		Solved:     state == game.MatchSolved,
		CreatedAt:  now.Add(-time.Minute),
		EndedAt:    now,
	}
}

func TestResultStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := newResultStore(t)

	rec := record(game.MatchSolved, 3)
	require.NoError(t, s.SaveMatch(ctx, rec))
	// second save of the same match is a no-op
	require.NoError(t, s.SaveMatch(ctx, rec))

	got, err := s.Get(ctx, rec.MatchID)
	require.NoError(t, err)
	assert.Equal(t, rec.Word, got.Word)
	assert.Equal(t, rec.Hints, got.Hints)
	assert.Equal(t, rec.Attempts, got.Attempts)
	assert.True(t, got.Solved)
	assert.True(t, rec.EndedAt.Equal(got.EndedAt))

	_, err = s.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultStore_Totals(t *testing.T) {
	ctx := context.Background()
	s := newResultStore(t)

	for _, rec := range []game.MatchRecord{
		record(game.MatchSolved, 2),
		record(game.MatchSolved, 4),
		record(game.MatchGivenUp, 7),
		record(game.MatchCancelled, 0),
	} {
		require.NoError(t, s.SaveMatch(ctx, rec))
	}

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Matches: 4, Solved: 2, GivenUp: 1, Cancelled: 1, AvgAttemptsSolved: 3}, totals)
}
