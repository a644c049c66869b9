// Package client connects to a game server over TCP, a Unix socket or a
// websocket and exchanges framed protocol messages with it.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"example.com/wordgame/internal/protocol"
	"github.com/gorilla/websocket"
)

var ErrBadTarget = errors.New("target must be host:port, a .sock path or a ws:// url")

const (
	NetworkTCP  = "tcp"
	NetworkUnix = "unix"
	NetworkWS   = "ws"
)

type Target struct {
	Network string
	Address string
}

func (t Target) String() string {
	if t.Network == NetworkWS {
		return t.Address
	}
	return t.Network + "://" + t.Address
}

// ParseTarget accepts a path ending in ".sock", a ws:// or wss:// url, or
// a host:port TCP address.
func ParseTarget(arg string) (Target, error) {
	switch {
	case arg == "":
		return Target{}, ErrBadTarget
	case strings.HasSuffix(arg, ".sock"):
		return Target{Network: NetworkUnix, Address: arg}, nil
	case strings.HasPrefix(arg, "ws://"), strings.HasPrefix(arg, "wss://"):
		return Target{Network: NetworkWS, Address: arg}, nil
	}

	host, port, err := net.SplitHostPort(arg)
	if err != nil || port == "" || strings.ContainsAny(host, "/ ") {
		return Target{}, fmt.Errorf("%w: %q", ErrBadTarget, arg)
	}
	return Target{Network: NetworkTCP, Address: arg}, nil
}

type stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Client is safe for one reader and any number of senders.
type Client struct {
	s   stream
	r   *protocol.Reader
	wmu sync.Mutex
}

func Dial(ctx context.Context, t Target) (*Client, error) {
	var (
		s   stream
		err error
	)
	switch t.Network {
	case NetworkTCP, NetworkUnix:
		var d net.Dialer
		s, err = d.DialContext(ctx, t.Network, t.Address)
	case NetworkWS:
		var ws *websocket.Conn
		ws, _, err = websocket.DefaultDialer.DialContext(ctx, t.Address, nil)
		if err == nil {
			s = protocol.NewWSStream(ws)
		}
	default:
		return nil, fmt.Errorf("%w: unknown network %q", ErrBadTarget, t.Network)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t, err)
	}
	return &Client{s: s, r: protocol.NewReader(s, 0)}, nil
}

func (c *Client) Send(msg protocol.ClientMessage) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return protocol.WriteClient(c.s, msg)
}

// Receive blocks for the next server message. Malformed records are
// returned as errors wrapping protocol.ErrMalformed and may be skipped.
func (c *Client) Receive() (protocol.ServerMessage, error) {
	return c.r.ReadServer()
}

func (c *Client) SetReadDeadline(t time.Time) error {
	return c.s.SetReadDeadline(t)
}

func (c *Client) Close() error {
	return c.s.Close()
}
