package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "GAME_PASSWORD", "REDIS_ADDR", "DATABASE_URL", "IDLE_TIMEOUT", "OUTBOX_SIZE"} {
		t.Setenv(k, "")
	}
	unsetForTest(t, "TCP_ADDR", "UNIX_SOCKET_PATH", "HTTP_ADDR")

	c, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", c.Env)
	assert.Equal(t, "127.0.0.1:3301", c.Game.TCPAddr)
	assert.Equal(t, "/tmp/wordgame.sock", c.Game.UnixSocketPath)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "password", c.Game.Password)
	assert.False(t, c.Game.ReplyWrongPassword)
	assert.Equal(t, 100, c.Game.OutboxSize)
	assert.Equal(t, 1000, c.Game.FinishedLimit)
	assert.Zero(t, c.Game.IdleTimeout)
	assert.Empty(t, c.Redis.Addr)
	assert.Empty(t, c.Postgres.URL)
	assert.Equal(t, 24*time.Hour, c.Redis.MatchTTL)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("TCP_ADDR", "")
	t.Setenv("UNIX_SOCKET_PATH", "/run/game.sock")
	t.Setenv("GAME_REPLY_WRONG_PASSWORD", "true")
	t.Setenv("IDLE_TIMEOUT", "30s")
	t.Setenv("OUTBOX_SIZE", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	c, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Empty(t, c.Game.TCPAddr, "set but empty disables the listener")
	assert.Equal(t, "/run/game.sock", c.Game.UnixSocketPath)
	assert.True(t, c.Game.ReplyWrongPassword)
	assert.Equal(t, 30*time.Second, c.Game.IdleTimeout)
	assert.Equal(t, 7, c.Game.OutboxSize)

	lvl, err := c.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Env = "dev"
		c.Log.Format = "text"
		c.Log.Level = "info"
		c.Game.TCPAddr = "127.0.0.1:0"
		c.Game.Password = "password"
		c.Game.InboxSize = 1
		c.Game.OutboxSize = 1
		c.Game.MaxFrameSize = 1024
		c.Auth.Secret = defaultJWTSecret
		return c
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unix only", mutate: func(c *Config) { c.Game.TCPAddr = ""; c.Game.UnixSocketPath = "/tmp/x.sock" }},
		{name: "no listeners", mutate: func(c *Config) { c.Game.TCPAddr = "" }, wantErr: "disabled"},
		{name: "no password", mutate: func(c *Config) { c.Game.Password = "" }, wantErr: "GAME_PASSWORD"},
		{name: "hash only", mutate: func(c *Config) { c.Game.Password = ""; c.Game.PasswordHash = "$2a$10$x" }},
		{name: "zero outbox", mutate: func(c *Config) { c.Game.OutboxSize = 0 }, wantErr: "OUTBOX_SIZE"},
		{name: "zero frame", mutate: func(c *Config) { c.Game.MaxFrameSize = 0 }, wantErr: "MAX_FRAME_SIZE"},
		{name: "negative idle", mutate: func(c *Config) { c.Game.IdleTimeout = -time.Second }, wantErr: "IDLE_TIMEOUT"},
		{name: "default jwt in prod", mutate: func(c *Config) { c.Env = "prod"; c.Game.Password = "s3cret" }, wantErr: "JWT_SECRET"},
		{name: "default password in prod", mutate: func(c *Config) { c.Env = "prod"; c.Auth.Secret = "strong" }, wantErr: "GAME_PASSWORD"},
		{name: "migrations without db", mutate: func(c *Config) { c.Postgres.RunMigrations = true }, wantErr: "DATABASE_URL"},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "LOG_FORMAT"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "LOG_LEVEL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// unsetForTest removes keys for the duration of the test. An empty value
// is not enough for the listener addresses, where "" means disabled.
func unsetForTest(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
