package game

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	TransportTCP  = "tcp"
	TransportUnix = "unix"
	TransportWS   = "ws"
)

func ListenTCP(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen tcp %s: %w", addr, err)
	}
	return ln, nil
}

// ListenUnix binds a Unix socket at path, removing a stale socket file left
// behind by an earlier run.
func ListenUnix(path string) (net.Listener, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve socket path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", absPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", absPath, err)
	}
	return ln, nil
}

// RemoveSocket deletes the socket file; a missing file is not an error.
func RemoveSocket(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Serve accepts connections from ln and hands them to the dispatch loop
// until ctx is cancelled. ln is closed on return. Accept errors other than
// the listener being closed are logged and retried.
func (s *Server) Serve(ctx context.Context, ln net.Listener, transport string) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	log := s.log.With("transport", transport, "addr", ln.Addr().String())
	log.Info("listening")

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info("listener stopped")
				return nil
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			log.Warn("accept failed", "err", err, "retry_in", backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if err := s.Accept(ctx, conn, transport); err != nil {
			log.Info("listener stopped", "err", err)
			return nil
		}
	}
}
