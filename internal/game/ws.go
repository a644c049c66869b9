package game

import (
	"net/http"

	"example.com/wordgame/internal/protocol"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS is the websocket entry point. After the upgrade the connection
// is handled exactly like a TCP or Unix client.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.log.Debug("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	if err := s.Accept(r.Context(), protocol.NewWSStream(ws), TransportWS); err != nil {
		s.log.Info("ws client rejected", "remote", r.RemoteAddr, "err", err)
	}
}
