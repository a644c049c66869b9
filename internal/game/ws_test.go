package game

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/wordgame/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWS(t *testing.T) {
	s := startServer(t, Config{}, Options{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.HandleWS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	t.Run("plain_http_rejected", func(t *testing.T) {
		res, err := http.Get(ts.URL + "/ws")
		require.NoError(t, err)
		_ = res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("login_over_binary_frames", func(t *testing.T) {
		ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		stream := protocol.NewWSStream(ws)
		t.Cleanup(func() { _ = stream.Close() })
		r := protocol.NewReader(stream, 0)

		recv := func() protocol.ServerMessage {
			t.Helper()
			require.NoError(t, stream.SetReadDeadline(time.Now().Add(2*time.Second)))
			msg, err := r.ReadServer()
			require.NoError(t, err)
			return msg
		}

		assert.Equal(t, protocol.AskPassword{}, recv())

		// text messages carry no frames and are ignored
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("hello")))
		require.NoError(t, protocol.WriteClient(stream, protocol.AnswerPassword{Password: testPassword}))

		_, ok := recv().(protocol.AssignID)
		assert.True(t, ok, "expected AssignID")
	})
}
