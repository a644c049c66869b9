//go:build integration

package game

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, rdb.Ping(ctx).Err(), "redis is not reachable")
	return rdb
}

func finishedRecord(t *testing.T, s *Session, word string, guesses ...string) MatchRecord {
	t.Helper()
	a, b := uuid.New(), uuid.New()
	for _, p := range []uuid.UUID{a, b} {
		s.Authenticate(p)
		s.AddAvailable(p)
	}
	m, ok := s.CreateMatch(a, b, word)
	require.True(t, ok)
	for _, g := range guesses {
		_, err := s.RecordGuess(m.ID, g)
		require.NoError(t, err)
	}
	if m.State == MatchActive {
		_, err := s.GiveUp(m.ID)
		require.NoError(t, err)
	}
	_, ok = s.FinishMatch(m.ID)
	require.True(t, ok)
	return m.Record()
}

func TestRedisMatchArchive_SaveLoad(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	archive := NewRedisMatchArchive(rdb, time.Hour, 10)
	rec := finishedRecord(t, NewSession(0), "apple", "apply", "apple")

	require.NoError(t, archive.SaveMatch(ctx, rec))

	got, ok, err := archive.LoadMatch(ctx, rec.MatchID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.Word, got.Word)
	require.Equal(t, uint32(2), got.Attempts)
	require.Equal(t, "solved", got.State)
	require.True(t, got.Solved)
	require.True(t, rec.EndedAt.Equal(got.EndedAt))

	ttl, err := rdb.TTL(ctx, "match:"+rec.MatchID+":record").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	_, ok, err = archive.LoadMatch(ctx, uuid.NewString())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisMatchArchive_RecentIsCapped(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	archive := NewRedisMatchArchive(rdb, time.Hour, 3)
	s := NewSession(0)

	var ids []string
	for i := 0; i < 5; i++ {
		rec := finishedRecord(t, s, "pear")
		require.NoError(t, archive.SaveMatch(ctx, rec))
		ids = append(ids, rec.MatchID)
	}

	recent, err := archive.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{ids[4], ids[3], ids[2]}, recent)

	recent, err = archive.Recent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{ids[4]}, recent)
}
