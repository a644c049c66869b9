package game

import (
	"time"

	"github.com/google/uuid"
)

type MatchState uint8

const (
	MatchActive MatchState = iota
	MatchSolved
	MatchGivenUp
	MatchCancelled
)

func (s MatchState) String() string {
	switch s {
	case MatchActive:
		return "active"
	case MatchSolved:
		return "solved"
	case MatchGivenUp:
		return "given_up"
	case MatchCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal states have no outgoing transitions.
func (s MatchState) Terminal() bool {
	return s != MatchActive
}

// Match is one challenger/guesser pairing. It is owned by Session and only
// mutated from the dispatch loop.
type Match struct {
	ID         uuid.UUID
	Challenger uuid.UUID
	Guesser    uuid.UUID

	word string // never sent to the guesser

	Attempts  uint32
	Hints     []string
	LastGuess string
	State     MatchState

	CreatedAt time.Time
	EndedAt   time.Time
}

func newMatch(id, challenger, guesser uuid.UUID, word string, now time.Time) *Match {
	return &Match{
		ID:         id,
		Challenger: challenger,
		Guesser:    guesser,
		word:       word,
		State:      MatchActive,
		CreatedAt:  now,
	}
}

func (m *Match) attempt(guess string) error {
	if m.State.Terminal() {
		return ErrMatchOver
	}
	m.Attempts++
	m.LastGuess = guess
	if guess == m.word {
		m.State = MatchSolved
	}
	return nil
}

func (m *Match) addHint(hint string) error {
	if m.State.Terminal() {
		return ErrMatchOver
	}
	m.Hints = append(m.Hints, hint)
	return nil
}

func (m *Match) terminate(state MatchState) error {
	if m.State.Terminal() {
		return ErrMatchOver
	}
	m.State = state
	return nil
}

func (m *Match) HintCount() uint32 {
	return uint32(len(m.Hints))
}

// Involves reports whether player is the challenger or the guesser.
func (m *Match) Involves(player uuid.UUID) bool {
	return m.Challenger == player || m.Guesser == player
}

// Opponent returns the other participant.
func (m *Match) Opponent(player uuid.UUID) uuid.UUID {
	if m.Challenger == player {
		return m.Guesser
	}
	return m.Challenger
}
