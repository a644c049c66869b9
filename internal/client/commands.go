package client

import (
	"errors"
	"fmt"
	"strings"

	"example.com/wordgame/internal/protocol"
	"example.com/wordgame/internal/words"
	"github.com/google/uuid"
)

var (
	// ErrQuit is returned by ParseCommand for "quit"; nothing is sent.
	ErrQuit = errors.New("quit")
	// ErrBadWord rejects words and guesses that are not lowercase letters.
	ErrBadWord = errors.New("words must be lowercase letters only")
)

const Help = `commands:
  password <secret>          answer the password prompt
  opponents                  list players waiting for a match
  challenge <player> <word>  start a match, <player> has to guess <word>
  guess <match> <word>       guess the word of a match
  hint <match> <text...>     send a hint to your guesser
  giveup <match>             give up a match you are guessing
  leave                      leave the game
  quit                       close the connection`

// ParseCommand turns one input line into a client message.
func ParseCommand(line string) (protocol.ClientMessage, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "password", "pass":
		// the secret may contain spaces
		return protocol.AnswerPassword{Password: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))}, nil
	case "opponents", "ls":
		return protocol.GetOpponents{}, nil
	case "challenge":
		if len(args) != 2 {
			return nil, errors.New("usage: challenge <player> <word>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad player id: %w", err)
		}
		if !words.Valid(args[1]) {
			return nil, fmt.Errorf("%w: %q", ErrBadWord, args[1])
		}
		return protocol.RequestMatch{Opponent: id, Word: args[1]}, nil
	case "guess":
		if len(args) != 2 {
			return nil, errors.New("usage: guess <match> <word>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad match id: %w", err)
		}
		if !words.Valid(args[1]) {
			return nil, fmt.Errorf("%w: %q", ErrBadWord, args[1])
		}
		return protocol.GuessAttempt{Match: id, Guess: args[1]}, nil
	case "hint":
		if len(args) < 2 {
			return nil, errors.New("usage: hint <match> <text...>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad match id: %w", err)
		}
		return protocol.SendHint{Match: id, Hint: strings.Join(args[1:], " ")}, nil
	case "giveup":
		if len(args) != 1 {
			return nil, errors.New("usage: giveup <match>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return nil, fmt.Errorf("bad match id: %w", err)
		}
		return protocol.GiveUp{Match: id}, nil
	case "leave":
		return protocol.LeaveGame{}, nil
	case "quit", "exit":
		return nil, ErrQuit
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}
}

// Describe renders a server message for the terminal.
func Describe(msg protocol.ServerMessage) string {
	switch m := msg.(type) {
	case protocol.AskPassword:
		return "server asks for the password (password <secret>)"
	case protocol.WrongPassword:
		return "wrong password"
	case protocol.AssignID:
		return "logged in as " + m.Player.String()
	case protocol.BadRequest:
		return "request rejected: " + m.Reason.String()
	case protocol.ListOpponents:
		if len(m.Players) == 0 {
			return "no opponents available"
		}
		ids := make([]string, len(m.Players))
		for i, p := range m.Players {
			ids[i] = p.String()
		}
		return "opponents:\n  " + strings.Join(ids, "\n  ")
	case protocol.MatchAccepted:
		return "match " + m.Match.String() + " started, you are the challenger"
	case protocol.MatchStarted:
		return "match " + m.Match.String() + " started, you are guessing"
	case protocol.MatchAttempt:
		return fmt.Sprintf("match %s: guess %q (attempt %d, hints %d)", m.Match, m.Guess, m.Attempts, m.Hints)
	case protocol.IncorrectGuess:
		return fmt.Sprintf("match %s: wrong guess (attempt %d)", m.Match, m.Attempts)
	case protocol.MatchHint:
		return fmt.Sprintf("match %s: hint %q", m.Match, m.Hint)
	case protocol.MatchEnded:
		outcome := "not solved"
		if m.Solved {
			outcome = "solved"
		}
		return fmt.Sprintf("match %s ended, %s after %d attempts and %d hints", m.Match, outcome, m.Attempts, m.Hints)
	case protocol.Disconnect:
		return "server is shutting down"
	default:
		return fmt.Sprintf("unexpected message %T", msg)
	}
}
