package store

import (
	"context"
	"errors"
	"fmt"

	"example.com/wordgame/internal/game"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Totals aggregates every archived match by outcome.
type Totals struct {
	Matches           int64   `json:"matches"`
	Solved            int64   `json:"solved"`
	GivenUp           int64   `json:"givenUp"`
	Cancelled         int64   `json:"cancelled"`
	AvgAttemptsSolved float64 `json:"avgAttemptsSolved"`
}

// ResultStore is the Postgres log of finished matches.
type ResultStore struct {
	db *pgxpool.Pool
}

func NewResultStore(db *pgxpool.Pool) *ResultStore {
	return &ResultStore{db: db}
}

// SaveMatch is idempotent per match id.
func (s *ResultStore) SaveMatch(ctx context.Context, rec game.MatchRecord) error {
	hints := rec.Hints
	if hints == nil {
		hints = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO match_results
			(id, challenger_id, guesser_id, word, attempts, hints, last_guess, outcome, created_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, rec.MatchID, rec.Challenger, rec.Guesser, rec.Word, int64(rec.Attempts),
		hints, rec.LastGuess, rec.State, rec.CreatedAt, rec.EndedAt)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	return nil
}

func (s *ResultStore) Get(ctx context.Context, matchID string) (game.MatchRecord, error) {
	var (
		rec      game.MatchRecord
		attempts int64
	)
	err := s.db.QueryRow(ctx, `
		SELECT id::text, challenger_id::text, guesser_id::text, word, attempts, hints,
		       last_guess, outcome, created_at, ended_at
		FROM match_results
		WHERE id = $1
	`, matchID).Scan(&rec.MatchID, &rec.Challenger, &rec.Guesser, &rec.Word, &attempts,
		&rec.Hints, &rec.LastGuess, &rec.State, &rec.CreatedAt, &rec.EndedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return game.MatchRecord{}, ErrNotFound
	}
	if err != nil {
		return game.MatchRecord{}, err
	}
	rec.Attempts = uint32(attempts)
	rec.Solved = rec.State == game.MatchSolved.String()
	return rec, nil
}

func (s *ResultStore) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE outcome = 'solved'),
			count(*) FILTER (WHERE outcome = 'given_up'),
			count(*) FILTER (WHERE outcome = 'cancelled'),
			COALESCE(avg(attempts) FILTER (WHERE outcome = 'solved'), 0)::float8
		FROM match_results
	`).Scan(&t.Matches, &t.Solved, &t.GivenUp, &t.Cancelled, &t.AvgAttemptsSolved)
	if err != nil {
		return Totals{}, fmt.Errorf("match totals: %w", err)
	}
	return t, nil
}
