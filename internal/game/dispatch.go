package game

import (
	"context"

	"example.com/wordgame/internal/protocol"
	"github.com/google/uuid"
)

func (s *Server) dispatch(ctx context.Context, ev inbound) {
	if ev.closed {
		if s.session.IsAuthenticated(ev.from) {
			s.leave(ctx, ev.from)
		}
		s.session.Forget(ev.from)
		s.log.Debug("client forgotten", "player", ev.from)
		return
	}

	s.metrics.MessagesReceived.WithLabelValues(messageType(ev.msg)).Inc()

	switch msg := ev.msg.(type) {
	case protocol.AnswerPassword:
		s.handlePassword(ctx, ev.from, msg)
		return
	case protocol.LeaveGame:
		// the player stays logged in and may answer the password again to
		// rejoin the available list
		if s.session.IsAuthenticated(ev.from) {
			s.leave(ctx, ev.from)
			s.log.Info("player left", "player", ev.from)
		}
		return
	}

	if !s.session.IsAuthenticated(ev.from) {
		s.badRequest(ctx, ev.from, protocol.PermissionDenied)
		return
	}

	switch msg := ev.msg.(type) {
	case protocol.GetOpponents:
		s.send(ctx, ev.from, protocol.ListOpponents{Players: s.session.Available(ev.from)})
	case protocol.RequestMatch:
		s.handleRequestMatch(ctx, ev.from, msg)
	case protocol.GuessAttempt:
		s.handleGuess(ctx, ev.from, msg)
	case protocol.SendHint:
		s.handleHint(ctx, ev.from, msg)
	case protocol.GiveUp:
		s.handleGiveUp(ctx, ev.from, msg)
	default:
		s.log.Warn("unhandled client message", "player", ev.from, "type", messageType(ev.msg))
	}
}

func (s *Server) handlePassword(ctx context.Context, from uuid.UUID, msg protocol.AnswerPassword) {
	if s.session.IsAuthenticated(from) {
		if len(s.session.MatchesOf(from)) == 0 {
			s.session.AddAvailable(from)
		}
		s.send(ctx, from, protocol.AssignID{Player: from})
		return
	}
	if !s.password.Verify(msg.Password) {
		s.metrics.WrongPasswords.Inc()
		s.log.Info("wrong password", "player", from)
		if s.cfg.ReplyWrongPassword {
			s.send(ctx, from, protocol.WrongPassword{})
		}
		return
	}

	s.session.Authenticate(from)
	s.session.AddAvailable(from)
	s.log.Info("player authenticated", "player", from)
	s.send(ctx, from, protocol.AssignID{Player: from})
}

func (s *Server) handleRequestMatch(ctx context.Context, from uuid.UUID, msg protocol.RequestMatch) {
	m, ok := s.session.CreateMatch(from, msg.Opponent, msg.Word)
	if !ok {
		s.badRequest(ctx, from, protocol.CannotCreateMatch)
		return
	}

	s.metrics.MatchesCreated.Inc()
	s.log.Info("match started", "match", m.ID, "challenger", from, "guesser", msg.Opponent)
	s.send(ctx, m.Guesser, protocol.MatchStarted{Match: m.ID})
	s.send(ctx, m.Challenger, protocol.MatchAccepted{Match: m.ID})
}

func (s *Server) handleGuess(ctx context.Context, from uuid.UUID, msg protocol.GuessAttempt) {
	m, ok := s.session.ActiveMatch(msg.Match)
	if !ok {
		s.badRequest(ctx, from, protocol.MatchNotFound)
		return
	}
	if m.Guesser != from {
		s.badRequest(ctx, from, protocol.PermissionDenied)
		return
	}
	if _, err := s.session.RecordGuess(m.ID, msg.Guess); err != nil {
		s.log.Error("record guess", "match", m.ID, "err", err)
		return
	}

	if m.State == MatchSolved {
		s.end(ctx, m)
		return
	}
	s.send(ctx, m.Challenger, protocol.MatchAttempt{
		Match:    m.ID,
		Attempts: m.Attempts,
		Hints:    m.HintCount(),
		Guess:    msg.Guess,
	})
	s.send(ctx, m.Guesser, protocol.IncorrectGuess{Match: m.ID, Attempts: m.Attempts})
}

func (s *Server) handleHint(ctx context.Context, from uuid.UUID, msg protocol.SendHint) {
	m, ok := s.session.ActiveMatch(msg.Match)
	if !ok {
		s.badRequest(ctx, from, protocol.MatchNotFound)
		return
	}
	if m.Challenger != from {
		s.badRequest(ctx, from, protocol.PermissionDenied)
		return
	}
	if _, err := s.session.AddHint(m.ID, msg.Hint); err != nil {
		s.log.Error("add hint", "match", m.ID, "err", err)
		return
	}
	s.send(ctx, m.Guesser, protocol.MatchHint{Match: m.ID, Hint: msg.Hint})
}

func (s *Server) handleGiveUp(ctx context.Context, from uuid.UUID, msg protocol.GiveUp) {
	m, ok := s.session.ActiveMatch(msg.Match)
	if !ok {
		s.badRequest(ctx, from, protocol.MatchNotFound)
		return
	}
	if m.Guesser != from {
		s.badRequest(ctx, from, protocol.PermissionDenied)
		return
	}
	if _, err := s.session.GiveUp(m.ID); err != nil {
		s.log.Error("give up", "match", m.ID, "err", err)
		return
	}
	s.end(ctx, m)
}

// leave ends every active match of the player and takes them off the
// available list. The opponent of each match is told it ended unsolved.
func (s *Server) leave(ctx context.Context, player uuid.UUID) {
	for _, m := range s.session.MatchesOf(player) {
		var err error
		if m.Guesser == player {
			_, err = s.session.GiveUp(m.ID)
		} else {
			_, err = s.session.Cancel(m.ID)
		}
		if err != nil {
			s.log.Error("end match on leave", "match", m.ID, "err", err)
			continue
		}
		s.finish(m)
		s.send(ctx, m.Opponent(player), matchEnded(m))
	}
	s.session.RemoveAvailable(player)
}

// end notifies both participants and archives the match.
func (s *Server) end(ctx context.Context, m *Match) {
	s.finish(m)
	ended := matchEnded(m)
	s.send(ctx, m.Guesser, ended)
	s.send(ctx, m.Challenger, ended)
}

func (s *Server) finish(m *Match) {
	if _, ok := s.session.FinishMatch(m.ID); !ok {
		return
	}
	s.metrics.MatchesFinished.WithLabelValues(m.State.String()).Inc()
	s.log.Info("match finished",
		"match", m.ID,
		"state", m.State.String(),
		"attempts", m.Attempts,
		"hints", m.HintCount(),
	)
	if s.recorder != nil {
		s.recorder.Enqueue(m.Record())
	}
}

func (s *Server) badRequest(ctx context.Context, to uuid.UUID, reason protocol.Reason) {
	s.metrics.BadRequests.WithLabelValues(reason.String()).Inc()
	s.log.Debug("bad request", "player", to, "reason", reason.String())
	s.send(ctx, to, protocol.BadRequest{Reason: reason})
}

func matchEnded(m *Match) protocol.MatchEnded {
	return protocol.MatchEnded{
		Match:    m.ID,
		Attempts: m.Attempts,
		Hints:    m.HintCount(),
		Solved:   m.State == MatchSolved,
	}
}

func messageType(msg protocol.ClientMessage) string {
	switch msg.(type) {
	case protocol.AnswerPassword:
		return "answer_password"
	case protocol.GetOpponents:
		return "get_opponents"
	case protocol.RequestMatch:
		return "request_match"
	case protocol.GuessAttempt:
		return "guess_attempt"
	case protocol.SendHint:
		return "send_hint"
	case protocol.GiveUp:
		return "give_up"
	case protocol.LeaveGame:
		return "leave_game"
	default:
		return "unknown"
	}
}
