package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"example.com/wordgame/internal/auth"
	"example.com/wordgame/internal/client"
	"example.com/wordgame/internal/config"
	"example.com/wordgame/internal/game"
	"example.com/wordgame/internal/httpapi"
	"example.com/wordgame/internal/protocol"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	var c config.Config
	c.Env = "dev"
	c.Log.Format = "text"
	c.Log.Level = "info"
	c.Game.TCPAddr = "127.0.0.1:0"
	c.Game.UnixSocketPath = filepath.Join(t.TempDir(), "game.sock")
	c.Game.Password = "password"
	c.Game.InboxSize = 16
	c.Game.OutboxSize = 16
	c.Game.MaxFrameSize = 4096
	c.Game.FinishedLimit = 10
	c.Game.ShutdownSendTimeout = time.Second
	c.Game.RecorderQueue = 4
	c.HTTP.Addr = "127.0.0.1:0"
	c.HTTP.ReadHeaderTimeout = time.Second
	c.HTTP.ShutdownTimeout = time.Second
	c.Auth.Secret = "test-secret"
	c.Auth.TokenTTL = time.Hour
	require.NoError(t, c.Validate())
	return c
}

type player struct {
	t  *testing.T
	c  *client.Client
	id uuid.UUID
}

func join(t *testing.T, target string) *player {
	t.Helper()
	tgt, err := client.ParseTarget(target)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, tgt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	p := &player{t: t, c: c}
	assert.Equal(t, protocol.AskPassword{}, p.recv())
	require.NoError(t, c.Send(protocol.AnswerPassword{Password: "password"}))
	assign, ok := p.recv().(protocol.AssignID)
	require.True(t, ok)
	p.id = assign.Player
	return p
}

func (p *player) recv() protocol.ServerMessage {
	p.t.Helper()
	require.NoError(p.t, p.c.SetReadDeadline(time.Now().Add(3*time.Second)))
	msg, err := p.c.Receive()
	require.NoError(p.t, err)
	return msg
}

func TestApp_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), cfg, log, Options{PasswordCost: bcrypt.MinCost})
	require.NoError(t, err)
	addrs := a.Addrs()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	tcp := join(t, addrs.TCP)
	unix := join(t, cfg.Game.UnixSocketPath)
	ws := join(t, "ws://"+addrs.HTTP+"/ws")

	// tcp challenges the websocket player, unix watches the list shrink
	require.NoError(t, tcp.c.Send(protocol.RequestMatch{Opponent: ws.id, Word: "apple"}))
	started, ok := ws.recv().(protocol.MatchStarted)
	require.True(t, ok)
	m := started.Match
	assert.Equal(t, protocol.MatchAccepted{Match: m}, tcp.recv())

	require.NoError(t, unix.c.Send(protocol.GetOpponents{}))
	assert.Equal(t, protocol.ListOpponents{}, unix.recv())

	require.NoError(t, ws.c.Send(protocol.GuessAttempt{Match: m, Guess: "apply"}))
	assert.Equal(t, protocol.IncorrectGuess{Match: m, Attempts: 1}, ws.recv())
	assert.Equal(t, protocol.MatchAttempt{Match: m, Attempts: 1, Guess: "apply"}, tcp.recv())

	require.NoError(t, ws.c.Send(protocol.GuessAttempt{Match: m, Guess: "apple"}))
	ended := protocol.MatchEnded{Match: m, Attempts: 2, Solved: true}
	assert.Equal(t, ended, ws.recv())
	assert.Equal(t, ended, tcp.recv())

	// admin API
	base := "http://" + addrs.HTTP
	token, err := auth.NewService([]byte(cfg.Auth.Secret)).Sign("test", time.Minute)
	require.NoError(t, err)

	res, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, "ok", string(body))

	req, _ := http.NewRequest(http.MethodGet, base+"/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var stats httpapi.StatsResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&stats))
	_ = res.Body.Close()
	assert.Equal(t, 3, stats.Connections)
	assert.Equal(t, game.SessionStats{Authenticated: 3, Available: 3, Finished: 1}, stats.Live)

	req, _ = http.NewRequest(http.MethodGet, base+"/api/matches/"+m.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var rec game.MatchRecord
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rec))
	_ = res.Body.Close()
	assert.Equal(t, "solved", rec.State)
	assert.Equal(t, "apple", rec.Word)

	res, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Contains(t, string(body), `wordgame_matches_finished_total{state="solved"} 1`)

	// shutdown
	cancel()
	for _, p := range []*player{tcp, unix, ws} {
		assert.Equal(t, protocol.Disconnect{}, p.recv())
	}
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	_, err = os.Stat(cfg.Game.UnixSocketPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "socket file removed on shutdown")
}

func TestNew_RemovesStaleSocket(t *testing.T) {
	cfg := testConfig(t)
	cfg.Game.TCPAddr = ""
	cfg.HTTP.Addr = ""
	require.NoError(t, os.WriteFile(cfg.Game.UnixSocketPath, []byte("stale"), 0o600))

	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{PasswordCost: bcrypt.MinCost})
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.NotEmpty(t, a.Addrs().Unix)
	assert.Empty(t, a.Addrs().TCP)
}

func TestNew_BindFailureReleasesListeners(t *testing.T) {
	cfg := testConfig(t)
	first, err := New(context.Background(), cfg, nil, Options{PasswordCost: bcrypt.MinCost})
	require.NoError(t, err)
	defer first.Close(context.Background())

	cfg2 := testConfig(t)
	cfg2.HTTP.Addr = first.Addrs().HTTP

	_, err = New(context.Background(), cfg2, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{PasswordCost: bcrypt.MinCost})
	require.Error(t, err)

	_, statErr := os.Stat(cfg2.Game.UnixSocketPath)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestNew_BadPasswordHash(t *testing.T) {
	cfg := testConfig(t)
	cfg.Game.PasswordHash = "not-bcrypt"

	_, err := New(context.Background(), cfg, nil, Options{})
	assert.Error(t, err)
}
