package game

import "time"

// MatchRecord is the serialisable form of a finished match kept in Redis
// and Postgres.
type MatchRecord struct {
	MatchID    string   `json:"matchId"`
	Challenger string   `json:"challenger"`
	Guesser    string   `json:"guesser"`
	Word       string   `json:"word"`
	Attempts   uint32   `json:"attempts"`
	Hints      []string `json:"hints"`
	LastGuess  string   `json:"lastGuess,omitempty"`
	State      string   `json:"state"` // solved|given_up|cancelled
	Solved     bool     `json:"solved"`

	CreatedAt time.Time `json:"createdAt"`
	EndedAt   time.Time `json:"endedAt"`
}

func (m *Match) Record() MatchRecord {
	return MatchRecord{
		MatchID:    m.ID.String(),
		Challenger: m.Challenger.String(),
		Guesser:    m.Guesser.String(),
		Word:       m.word,
		Attempts:   m.Attempts,
		Hints:      append([]string(nil), m.Hints...),
		LastGuess:  m.LastGuess,
		State:      m.State.String(),
		Solved:     m.State == MatchSolved,
		CreatedAt:  m.CreatedAt,
		EndedAt:    m.EndedAt,
	}
}
