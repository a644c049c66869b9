package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"example.com/wordgame/internal/auth"
	"example.com/wordgame/internal/config"
	"example.com/wordgame/internal/game"
	"example.com/wordgame/internal/httpapi"
	"example.com/wordgame/internal/metrics"
	"example.com/wordgame/internal/migrate"
	"example.com/wordgame/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	game     *game.Server
	recorder *game.Recorder

	tcpLn  net.Listener
	unixLn net.Listener
	httpLn net.Listener
	srv    *http.Server
}

type Options struct {
	// PasswordCost is the bcrypt cost used to hash GAME_PASSWORD; zero means
	// bcrypt.DefaultCost.
	PasswordCost int
}

// New connects optional backends and binds every configured listener, so a
// returned App is ready to Run. Any failure releases what was acquired.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (_ *App, err error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	password, err := newPassword(cfg, opts)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	a.recorder = game.NewRecorder(cfg.Game.RecorderQueue, 5*time.Second, log, m)

	// --- Postgres (optional) ---
	var results *store.ResultStore
	if cfg.Postgres.URL != "" {
		if cfg.Postgres.RunMigrations {
			if err := migrate.Up(cfg.Postgres.URL, cfg.Postgres.MigrationsDir, log); err != nil {
				return nil, err
			}
		}
		a.db, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = a.db.Ping(pingCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		results = store.NewResultStore(a.db)
		a.recorder.AddSink("postgres", results)
	}

	// --- Redis (optional) ---
	var archive *game.RedisMatchArchive
	if cfg.Redis.Addr != "" {
		a.rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = a.rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
		}
		archive = game.NewRedisMatchArchive(a.rdb, cfg.Redis.MatchTTL, cfg.Redis.RecentLimit)
		a.recorder.AddSink("redis", archive)
	}

	// --- Game ---
	a.game = game.NewServer(game.Config{
		ReplyWrongPassword:  cfg.Game.ReplyWrongPassword,
		InboxSize:           cfg.Game.InboxSize,
		OutboxSize:          cfg.Game.OutboxSize,
		MaxFrameSize:        cfg.Game.MaxFrameSize,
		IdleTimeout:         cfg.Game.IdleTimeout,
		FinishedLimit:       cfg.Game.FinishedLimit,
		ShutdownSendTimeout: cfg.Game.ShutdownSendTimeout,
	}, password, game.Options{Logger: log, Metrics: m, Recorder: a.recorder})

	// --- Listeners ---
	if cfg.Game.TCPAddr != "" {
		if a.tcpLn, err = game.ListenTCP(cfg.Game.TCPAddr); err != nil {
			return nil, err
		}
	}
	if cfg.Game.UnixSocketPath != "" {
		if a.unixLn, err = game.ListenUnix(cfg.Game.UnixSocketPath); err != nil {
			return nil, err
		}
	}

	// --- HTTP ---
	if cfg.HTTP.Addr != "" {
		admin := &httpapi.AdminHandler{Game: a.game, Log: log}
		if results != nil {
			admin.Results = results
		}
		if archive != nil {
			admin.Archive = archive
		}

		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		mux.Handle("GET /metrics", m.Handler())
		mux.HandleFunc("GET /ws", a.game.HandleWS)
		httpapi.Routes(mux, admin, auth.NewService([]byte(cfg.Auth.Secret)))

		a.srv = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
			ReadTimeout:       cfg.HTTP.ReadTimeout,
			WriteTimeout:      cfg.HTTP.WriteTimeout,
			IdleTimeout:       cfg.HTTP.IdleTimeout,
		}
		if a.httpLn, err = net.Listen("tcp", cfg.HTTP.Addr); err != nil {
			return nil, fmt.Errorf("listen http %s: %w", cfg.HTTP.Addr, err)
		}
	}

	return a, nil
}

func newPassword(cfg config.Config, opts Options) (*auth.Password, error) {
	if cfg.Game.PasswordHash != "" {
		return auth.PasswordFromHash(cfg.Game.PasswordHash)
	}
	cost := opts.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return auth.NewPassword(cfg.Game.Password, cost)
}

// Addrs reports the bound listener addresses; disabled ones are empty.
type Addrs struct {
	TCP  string
	Unix string
	HTTP string
}

func (a *App) Addrs() Addrs {
	var out Addrs
	if a.tcpLn != nil {
		out.TCP = a.tcpLn.Addr().String()
	}
	if a.unixLn != nil {
		out.Unix = a.unixLn.Addr().String()
	}
	if a.httpLn != nil {
		out.HTTP = a.httpLn.Addr().String()
	}
	return out
}

// Run serves until ctx is cancelled or a component fails, then shuts
// everything down and releases the backends.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.game.Run(gctx) })
	g.Go(func() error { return a.recorder.Run(gctx) })

	if a.tcpLn != nil {
		g.Go(func() error { return a.game.Serve(gctx, a.tcpLn, game.TransportTCP) })
	}
	if a.unixLn != nil {
		g.Go(func() error { return a.game.Serve(gctx, a.unixLn, game.TransportUnix) })
	}

	if a.srv != nil {
		a.log.Info("http server starting", "addr", a.httpLn.Addr().String())
		g.Go(func() error {
			err := a.srv.Serve(a.httpLn)
			if err == nil || errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			a.log.Info("http server shutting down")
			_ = a.srv.Shutdown(shutdownCtx)
			return nil
		})
	}

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

// Close releases listeners and backends. It is safe to call after Run.
func (a *App) Close(ctx context.Context) error {
	a.release()
	return nil
}

func (a *App) release() {
	for _, ln := range []net.Listener{a.tcpLn, a.unixLn, a.httpLn} {
		if ln != nil {
			_ = ln.Close()
		}
	}
	if a.unixLn != nil {
		if err := game.RemoveSocket(a.unixLn.Addr().String()); err != nil {
			a.log.Warn("remove unix socket", "path", a.cfg.Game.UnixSocketPath, "err", err)
		}
	}
	// best-effort
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
