package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MatchSink receives finished matches from the Recorder.
type MatchSink interface {
	SaveMatch(ctx context.Context, rec MatchRecord) error
}

const recentMatchesKey = "matches:recent"

// RedisMatchArchive keeps finished matches in Redis with a TTL plus a capped
// list of the most recent match ids.
type RedisMatchArchive struct {
	rdb       redis.Cmdable
	ttl       time.Duration
	recentCap int64
}

func NewRedisMatchArchive(rdb redis.Cmdable, ttl time.Duration, recentCap int) *RedisMatchArchive {
	if recentCap <= 0 {
		recentCap = 100
	}
	return &RedisMatchArchive{rdb: rdb, ttl: ttl, recentCap: int64(recentCap)}
}

func (s *RedisMatchArchive) key(matchID string) string {
	return fmt.Sprintf("match:%s:record", matchID)
}

func (s *RedisMatchArchive) SaveMatch(ctx context.Context, rec MatchRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.MatchID), b, s.ttl)
		pipe.LPush(ctx, recentMatchesKey, rec.MatchID)
		pipe.LTrim(ctx, recentMatchesKey, 0, s.recentCap-1)
		return nil
	})
	return err
}

func (s *RedisMatchArchive) LoadMatch(ctx context.Context, matchID string) (MatchRecord, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return MatchRecord{}, false, nil
	}
	if err != nil {
		return MatchRecord{}, false, err
	}

	var rec MatchRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return MatchRecord{}, false, err
	}
	return rec, true, nil
}

// Recent returns up to n match ids, newest first. Ids whose record has
// expired may still be listed.
func (s *RedisMatchArchive) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.rdb.LRange(ctx, recentMatchesKey, 0, int64(n-1)).Result()
}
