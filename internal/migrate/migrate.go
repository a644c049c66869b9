package migrate

import (
	"database/sql"
	"fmt"
	"log/slog"

	"example.com/wordgame/db"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Up applies all pending migrations. An empty dir uses the migrations
// embedded in the binary.
//
// It returns an error (no log.Fatal) so the caller can decide how to handle it.
func Up(dbURL, dir string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	conn, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("migrations: open db: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error("database close error", "err", err)
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}

	source := dir
	if dir == "" {
		goose.SetBaseFS(db.Migrations)
		defer goose.SetBaseFS(nil)
		source = "migrations"
	}

	log.Info("running database migrations", "dir", source, "embedded", dir == "")
	if err := goose.Up(conn, source); err != nil {
		return fmt.Errorf("migrations: goose up: %w", err)
	}
	log.Info("database migrations applied")
	return nil
}
