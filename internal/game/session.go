package game

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchOver     = errors.New("match already over")
)

// Session is the authoritative game state: who is logged in, who is
// waiting for a challenge, and every match. It has no locking; the Server
// dispatch loop is its only writer and reader.
type Session struct {
	authenticated map[uuid.UUID]struct{}
	available     map[uuid.UUID]uint64
	seq           uint64

	active        map[uuid.UUID]*Match
	finished      map[uuid.UUID]*Match
	finishedOrder []uuid.UUID
	finishedLimit int

	newID func() uuid.UUID
	now   func() time.Time
}

// NewSession keeps at most finishedLimit finished matches, evicting the
// oldest first. A limit <= 0 keeps them all.
func NewSession(finishedLimit int) *Session {
	return &Session{
		authenticated: make(map[uuid.UUID]struct{}),
		available:     make(map[uuid.UUID]uint64),
		active:        make(map[uuid.UUID]*Match),
		finished:      make(map[uuid.UUID]*Match),
		finishedLimit: finishedLimit,
		newID:         uuid.New,
		now:           time.Now,
	}
}

// Authenticate marks player as logged in. It reports false when the player
// already was.
func (s *Session) Authenticate(player uuid.UUID) bool {
	if _, ok := s.authenticated[player]; ok {
		return false
	}
	s.authenticated[player] = struct{}{}
	return true
}

func (s *Session) IsAuthenticated(player uuid.UUID) bool {
	_, ok := s.authenticated[player]
	return ok
}

// Forget drops every trace of the player outside of match history.
func (s *Session) Forget(player uuid.UUID) {
	delete(s.authenticated, player)
	delete(s.available, player)
}

// AddAvailable is idempotent; a player already listed keeps their position.
func (s *Session) AddAvailable(player uuid.UUID) {
	if _, ok := s.available[player]; ok {
		return
	}
	s.seq++
	s.available[player] = s.seq
}

func (s *Session) RemoveAvailable(player uuid.UUID) {
	delete(s.available, player)
}

func (s *Session) IsAvailable(player uuid.UUID) bool {
	_, ok := s.available[player]
	return ok
}

// Available lists waiting players in the order they became available,
// leaving out except.
func (s *Session) Available(except uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for id := range s.available {
		if id != except {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.available[out[i]] < s.available[out[j]]
	})
	return out
}

// CreateMatch pairs two distinct available players and takes both off the
// available list. On failure nothing changes.
func (s *Session) CreateMatch(challenger, guesser uuid.UUID, word string) (*Match, bool) {
	if challenger == guesser || !s.IsAvailable(challenger) || !s.IsAvailable(guesser) {
		return nil, false
	}
	m := newMatch(s.newID(), challenger, guesser, word, s.now())
	s.active[m.ID] = m
	s.RemoveAvailable(challenger)
	s.RemoveAvailable(guesser)
	return m, true
}

func (s *Session) ActiveMatch(id uuid.UUID) (*Match, bool) {
	m, ok := s.active[id]
	return m, ok
}

func (s *Session) FinishedMatch(id uuid.UUID) (*Match, bool) {
	m, ok := s.finished[id]
	return m, ok
}

// RecordGuess counts an attempt and moves the match to MatchSolved when the
// guess equals the word.
func (s *Session) RecordGuess(id uuid.UUID, guess string) (*Match, error) {
	m, ok := s.active[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, m.attempt(guess)
}

func (s *Session) AddHint(id uuid.UUID, hint string) (*Match, error) {
	m, ok := s.active[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, m.addHint(hint)
}

func (s *Session) GiveUp(id uuid.UUID) (*Match, error) {
	return s.terminate(id, MatchGivenUp)
}

func (s *Session) Cancel(id uuid.UUID) (*Match, error) {
	return s.terminate(id, MatchCancelled)
}

func (s *Session) terminate(id uuid.UUID, state MatchState) (*Match, error) {
	m, ok := s.active[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return m, m.terminate(state)
}

// FinishMatch moves a match in a terminal state into finished storage and
// returns its participants to the available list if they are still logged
// in. Active or unknown matches are left alone.
func (s *Session) FinishMatch(id uuid.UUID) (*Match, bool) {
	m, ok := s.active[id]
	if !ok || !m.State.Terminal() {
		return nil, false
	}
	delete(s.active, id)
	m.EndedAt = s.now()

	s.finished[id] = m
	s.finishedOrder = append(s.finishedOrder, id)
	if s.finishedLimit > 0 {
		for len(s.finishedOrder) > s.finishedLimit {
			delete(s.finished, s.finishedOrder[0])
			s.finishedOrder = s.finishedOrder[1:]
		}
	}

	for _, p := range []uuid.UUID{m.Challenger, m.Guesser} {
		if s.IsAuthenticated(p) {
			s.AddAvailable(p)
		}
	}
	return m, true
}

// MatchesOf returns the active matches the player takes part in, oldest
// first.
func (s *Session) MatchesOf(player uuid.UUID) []*Match {
	var out []*Match
	for _, m := range s.active {
		if m.Involves(player) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type SessionStats struct {
	Authenticated int `json:"authenticated"`
	Available     int `json:"available"`
	Active        int `json:"activeMatches"`
	Finished      int `json:"finishedMatches"`
}

func (s *Session) Stats() SessionStats {
	return SessionStats{
		Authenticated: len(s.authenticated),
		Available:     len(s.available),
		Active:        len(s.active),
		Finished:      len(s.finished),
	}
}
