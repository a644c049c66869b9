package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"example.com/wordgame/internal/metrics"
	"example.com/wordgame/internal/protocol"
	"github.com/google/uuid"
)

var ErrServerClosed = errors.New("game server closed")

type Config struct {
	ReplyWrongPassword bool

	InboxSize    int
	OutboxSize   int
	MaxFrameSize int
	IdleTimeout  time.Duration // 0 => no read deadline

	FinishedLimit       int
	ShutdownSendTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.InboxSize <= 0 {
		c.InboxSize = 100
	}
	if c.OutboxSize <= 0 {
		c.OutboxSize = 100
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = protocol.DefaultMaxFrameSize
	}
	if c.ShutdownSendTimeout <= 0 {
		c.ShutdownSendTimeout = time.Second
	}
	return c
}

// PasswordVerifier checks a client's answer to AskPassword.
type PasswordVerifier interface {
	Verify(candidate string) bool
}

type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Recorder *Recorder // nil => finished matches stay in memory only
}

type accepted struct {
	stream    Stream
	transport string
}

type query struct {
	fn   func(*Session)
	done chan struct{}
}

// Server is the single owner of the Session. Run processes accepts,
// inbound messages and admin queries one at a time; connection actors
// talk to it through channels only.
type Server struct {
	cfg      Config
	password PasswordVerifier
	log      *slog.Logger
	metrics  *metrics.Metrics
	recorder *Recorder

	session  *Session
	registry *Registry
	newID    func() uuid.UUID

	accepted chan accepted
	inbox    chan inbound
	queries  chan query
	stopped  chan struct{}
}

func NewServer(cfg Config, password PasswordVerifier, opts Options) *Server {
	cfg = cfg.withDefaults()
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	return &Server{
		cfg:      cfg,
		password: password,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
		session:  NewSession(cfg.FinishedLimit),
		registry: NewRegistry(),
		newID:    uuid.New,
		accepted: make(chan accepted),
		inbox:    make(chan inbound, cfg.InboxSize),
		queries:  make(chan query),
		stopped:  make(chan struct{}),
	}
}

// Accept hands a freshly connected stream to the dispatch loop. The
// stream is closed if the server is not running.
func (s *Server) Accept(ctx context.Context, stream Stream, transport string) error {
	select {
	case s.accepted <- accepted{stream: stream, transport: transport}:
		return nil
	case <-s.stopped:
		_ = stream.Close()
		return ErrServerClosed
	case <-ctx.Done():
		_ = stream.Close()
		return ctx.Err()
	}
}

// Run is the dispatch loop. It returns nil after ctx is cancelled and every
// client connection has been closed.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.stopped)
	s.log.Info("game loop started")

	for {
		select {
		case a := <-s.accepted:
			s.connect(ctx, a)
		case ev := <-s.inbox:
			s.dispatch(ctx, ev)
		case q := <-s.queries:
			q.fn(s.session)
			close(q.done)
		case <-ctx.Done():
			s.shutdown()
			return nil
		}
	}
}

func (s *Server) connect(ctx context.Context, a accepted) {
	id := s.newID()
	c := newConn(id, a.transport, a.stream, s.cfg, s.log, s.metrics)
	s.registry.Add(c)
	s.metrics.ConnectionsTotal.WithLabelValues(a.transport).Inc()
	s.metrics.ConnectionsActive.Inc()
	c.start(ctx, s.inbox, s.registry)

	s.log.Info("client connected", "player", id, "transport", a.transport)
	s.send(ctx, id, protocol.AskPassword{})
}

// shutdown sends Disconnect to every client and waits for the writers to
// flush it, all within one ShutdownSendTimeout. Connections still busy at
// the deadline are closed without flushing.
func (s *Server) shutdown() {
	s.log.Info("shutting down game loop", "clients", s.registry.Len())

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownSendTimeout)
	defer cancel()

	for id, err := range s.registry.Broadcast(ctx, protocol.Disconnect{}) {
		s.log.Warn("disconnect not delivered", "player", id, "err", err)
	}
	conns := s.registry.Snapshot()
	for _, c := range conns {
		c.Close()
	}
	for _, c := range conns {
		select {
		case <-c.Done():
		case <-ctx.Done():
			s.log.Warn("connection not drained before deadline", "player", c.ID())
			c.terminate()
		}
	}

	for {
		select {
		case a := <-s.accepted:
			_ = a.stream.Close()
		default:
			return
		}
	}
}

func (s *Server) send(ctx context.Context, to uuid.UUID, msg protocol.ServerMessage) {
	if err := s.registry.Send(ctx, to, msg); err != nil {
		s.metrics.SendFailures.Inc()
		s.log.Warn("send failed", "player", to, "tag", msg.ServerTag(), "err", err)
	}
}

func (s *Server) query(ctx context.Context, fn func(*Session)) error {
	q := query{fn: fn, done: make(chan struct{})}
	select {
	case s.queries <- q:
	case <-s.stopped:
		return ErrServerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats reads session counters from inside the dispatch loop.
func (s *Server) Stats(ctx context.Context) (SessionStats, error) {
	var st SessionStats
	if err := s.query(ctx, func(sess *Session) { st = sess.Stats() }); err != nil {
		return SessionStats{}, err
	}
	return st, nil
}

// FinishedMatch looks a match up in the in-memory finished storage.
func (s *Server) FinishedMatch(ctx context.Context, id uuid.UUID) (MatchRecord, bool, error) {
	var (
		rec MatchRecord
		ok  bool
	)
	err := s.query(ctx, func(sess *Session) {
		var m *Match
		if m, ok = sess.FinishedMatch(id); ok {
			rec = m.Record()
		}
	})
	if err != nil {
		return MatchRecord{}, false, err
	}
	return rec, ok, nil
}

// Connections is the number of live client actors.
func (s *Server) Connections() int {
	return s.registry.Len()
}
