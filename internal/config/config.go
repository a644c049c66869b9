package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	defaultJWTSecret    = "dev-secret-change-me"
	defaultGamePassword = "password"
)

// Config describes all runtime settings for the server. It is loaded once
// in main, validated, and passed down explicitly.
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Format string // text|json
		Level  string // debug|info|warn|error
	}

	Game struct {
		TCPAddr        string // "" => disabled
		UnixSocketPath string // "" => disabled

		Password           string
		PasswordHash       string // bcrypt, wins over Password
		ReplyWrongPassword bool

		InboxSize           int
		OutboxSize          int
		MaxFrameSize        int
		IdleTimeout         time.Duration // 0 => disabled
		FinishedLimit       int
		ShutdownSendTimeout time.Duration
		RecorderQueue       int
	}

	HTTP struct {
		Addr              string // "" => disabled
		ReadHeaderTimeout time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}

	Postgres struct {
		URL           string // "" => result log disabled
		RunMigrations bool
		MigrationsDir string // "" => embedded
	}

	Redis struct {
		Addr        string // "" => archive disabled
		DB          int
		MatchTTL    time.Duration
		RecentLimit int
	}

	Auth struct {
		Secret   string
		TokenTTL time.Duration
	}
}

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Format = envString("LOG_FORMAT", "text")
	c.Log.Level = envString("LOG_LEVEL", "info")

	c.Game.TCPAddr = envOptional("TCP_ADDR", "127.0.0.1:3301")
	c.Game.UnixSocketPath = envOptional("UNIX_SOCKET_PATH", "/tmp/wordgame.sock")
	c.Game.Password = envString("GAME_PASSWORD", defaultGamePassword)
	c.Game.PasswordHash = envString("GAME_PASSWORD_HASH", "")
	c.Game.ReplyWrongPassword = envBool("GAME_REPLY_WRONG_PASSWORD", false)
	c.Game.InboxSize = envInt("INBOX_SIZE", 100)
	c.Game.OutboxSize = envInt("OUTBOX_SIZE", 100)
	c.Game.MaxFrameSize = envInt("MAX_FRAME_SIZE", 64<<10)
	c.Game.IdleTimeout = envDuration("IDLE_TIMEOUT", 0)
	c.Game.FinishedLimit = envInt("FINISHED_LIMIT", 1000)
	c.Game.ShutdownSendTimeout = envDuration("SHUTDOWN_SEND_TIMEOUT", time.Second)
	c.Game.RecorderQueue = envInt("RECORDER_QUEUE", 256)

	c.HTTP.Addr = envOptional("HTTP_ADDR", ":8080")
	c.HTTP.ReadHeaderTimeout = envDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	c.HTTP.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", 0)
	c.HTTP.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", 0)
	c.HTTP.IdleTimeout = envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	c.HTTP.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	c.Postgres.URL = envString("DATABASE_URL", "")
	c.Postgres.RunMigrations = envBool("RUN_MIGRATIONS", false)
	c.Postgres.MigrationsDir = envString("MIGRATIONS_DIR", "")

	c.Redis.Addr = envString("REDIS_ADDR", "")
	c.Redis.DB = envInt("REDIS_DB", 0)
	c.Redis.MatchTTL = envDuration("MATCH_TTL", 24*time.Hour)
	c.Redis.RecentLimit = envInt("RECENT_MATCHES", 100)

	c.Auth.Secret = envString("JWT_SECRET", defaultJWTSecret)
	c.Auth.TokenTTL = envDuration("JWT_TTL", 24*time.Hour)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Game.TCPAddr == "" && c.Game.UnixSocketPath == "" {
		return errors.New("both TCP_ADDR and UNIX_SOCKET_PATH are disabled")
	}
	if c.Game.Password == "" && c.Game.PasswordHash == "" {
		return errors.New("GAME_PASSWORD is empty")
	}
	if c.Game.InboxSize <= 0 || c.Game.OutboxSize <= 0 {
		return errors.New("INBOX_SIZE and OUTBOX_SIZE must be positive")
	}
	if c.Game.MaxFrameSize <= 0 {
		return errors.New("MAX_FRAME_SIZE must be positive")
	}
	if c.Game.IdleTimeout < 0 {
		return errors.New("IDLE_TIMEOUT must not be negative")
	}
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	if c.Env != "dev" && c.Auth.Secret == defaultJWTSecret {
		return fmt.Errorf("refuse to run with default JWT_SECRET in %s", c.Env)
	}
	if c.Env != "dev" && c.Game.PasswordHash == "" && c.Game.Password == defaultGamePassword {
		return fmt.Errorf("refuse to run with default GAME_PASSWORD in %s", c.Env)
	}
	if c.Postgres.RunMigrations && c.Postgres.URL == "" {
		return errors.New("RUN_MIGRATIONS requires DATABASE_URL")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unsupported LOG_LEVEL=%q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envOptional treats a variable that is set but empty as "disabled".
func envOptional(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
