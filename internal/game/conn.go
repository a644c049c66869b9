package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"example.com/wordgame/internal/metrics"
	"example.com/wordgame/internal/protocol"
	"github.com/google/uuid"
)

// Stream is the byte transport behind one client. *net.TCPConn,
// *net.UnixConn and the websocket adapter all satisfy it.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// inbound is what a connection actor hands to the dispatch loop: either a
// decoded message or the notice that the connection is gone.
type inbound struct {
	from   uuid.UUID
	msg    protocol.ClientMessage
	closed bool
}

// Conn is the actor owning one client stream. Its reader decodes frames
// into the server inbox and its writer drains the outbox. The outbox is
// never closed; done signals that nothing more will be written.
type Conn struct {
	id        uuid.UUID
	transport string
	stream    Stream

	out  chan protocol.ServerMessage
	done chan struct{}
	quit chan struct{}

	doneOnce sync.Once
	quitOnce sync.Once

	maxFrame    int
	idleTimeout time.Duration

	log     *slog.Logger
	metrics *metrics.Metrics
}

func newConn(id uuid.UUID, transport string, stream Stream, cfg Config, log *slog.Logger, m *metrics.Metrics) *Conn {
	return &Conn{
		id:          id,
		transport:   transport,
		stream:      stream,
		out:         make(chan protocol.ServerMessage, cfg.OutboxSize),
		done:        make(chan struct{}),
		quit:        make(chan struct{}),
		maxFrame:    cfg.MaxFrameSize,
		idleTimeout: cfg.IdleTimeout,
		log:         log.With("player", id, "transport", transport),
		metrics:     m,
	}
}

func (c *Conn) ID() uuid.UUID { return c.id }

// Done is closed once the stream has been closed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close asks the writer to flush what is queued and then close the stream.
func (c *Conn) Close() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *Conn) terminate() {
	c.doneOnce.Do(func() {
		_ = c.stream.Close()
		close(c.done)
	})
}

func (c *Conn) enqueue(ctx context.Context, msg protocol.ServerMessage) error {
	select {
	case <-c.done:
		return ErrPlayerGone
	default:
	}
	select {
	case c.out <- msg:
		return nil
	case <-c.done:
		return ErrPlayerGone
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) start(ctx context.Context, inbox chan<- inbound, reg *Registry) {
	go c.writeLoop()
	go c.readLoop(ctx, inbox, reg)
}

func (c *Conn) writeLoop() {
	for {
		select {
		case msg := <-c.out:
			if !c.write(msg) {
				return
			}
		case <-c.quit:
			for {
				select {
				case msg := <-c.out:
					if !c.write(msg) {
						return
					}
				default:
					c.terminate()
					return
				}
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) write(msg protocol.ServerMessage) bool {
	if err := protocol.WriteServer(c.stream, msg); err != nil {
		c.log.Warn("write failed", "err", err)
		c.terminate()
		return false
	}
	return true
}

func (c *Conn) readLoop(ctx context.Context, inbox chan<- inbound, reg *Registry) {
	defer func() {
		reg.Remove(c)
		c.terminate()
		c.metrics.ConnectionsActive.Dec()
		select {
		case inbox <- inbound{from: c.id, closed: true}:
		case <-ctx.Done():
		}
	}()

	r := protocol.NewReader(c.stream, c.maxFrame)
	for {
		if c.idleTimeout > 0 {
			_ = c.stream.SetReadDeadline(time.Now().Add(c.idleTimeout))
		}

		msg, err := r.ReadClient()
		if err != nil {
			if errors.Is(err, protocol.ErrMalformed) {
				c.metrics.DecodeErrors.Inc()
				c.log.Debug("dropping malformed frame", "err", err)
				continue
			}
			c.logReadEnd(err)
			return
		}

		select {
		case inbox <- inbound{from: c.id, msg: msg}:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) logReadEnd(err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		c.log.Info("client disconnected")
	case errors.As(err, &ne) && ne.Timeout():
		c.log.Info("client idle, closing", "timeout", c.idleTimeout)
	case errors.Is(err, net.ErrClosed):
		c.log.Debug("connection closed")
	default:
		c.log.Warn("read failed", "err", err)
	}
}
