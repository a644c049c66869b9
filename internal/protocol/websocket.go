package protocol

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSStream carries the framed byte stream over a websocket. Every Write is
// one binary message; Read concatenates binary messages, so frames may span
// or share them. Text messages are ignored.
type WSStream struct {
	ws  *websocket.Conn
	r   io.Reader
	wmu sync.Mutex
}

func NewWSStream(ws *websocket.Conn) *WSStream {
	return &WSStream{ws: ws}
}

func (s *WSStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			mt, r, err := s.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseNoStatusReceived,
				) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			s.r = r
		}

		n, err := s.r.Read(p)
		if errors.Is(err, io.EOF) {
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *WSStream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame on a best effort basis and closes the socket.
func (s *WSStream) Close() error {
	_ = s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.ws.Close()
}

func (s *WSStream) SetReadDeadline(t time.Time) error {
	return s.ws.SetReadDeadline(t)
}
