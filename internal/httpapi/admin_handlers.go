package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"example.com/wordgame/internal/game"
	"example.com/wordgame/internal/store"
	"github.com/google/uuid"
)

// GameState is the live view served by the dispatch loop.
type GameState interface {
	Stats(ctx context.Context) (game.SessionStats, error)
	FinishedMatch(ctx context.Context, id uuid.UUID) (game.MatchRecord, bool, error)
	Connections() int
}

type MatchArchive interface {
	LoadMatch(ctx context.Context, matchID string) (game.MatchRecord, bool, error)
	Recent(ctx context.Context, n int) ([]string, error)
}

type ResultLog interface {
	Get(ctx context.Context, matchID string) (game.MatchRecord, error)
	Totals(ctx context.Context) (store.Totals, error)
}

// AdminHandler serves the read-only operator API. Archive and Results are
// optional.
type AdminHandler struct {
	Game    GameState
	Archive MatchArchive
	Results ResultLog
	Log     *slog.Logger
}

type StatsResponse struct {
	Connections int               `json:"connections"`
	Live        game.SessionStats `json:"live"`
	Archived    *store.Totals     `json:"archived,omitempty"`
	Recent      []string          `json:"recent,omitempty"`
}

func (h *AdminHandler) log() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	live, err := h.Game.Stats(r.Context())
	if err != nil {
		writeError(w, CodeGameLoopDown, "game loop is not running")
		return
	}
	resp := StatsResponse{Connections: h.Game.Connections(), Live: live}

	if h.Results != nil {
		totals, err := h.Results.Totals(r.Context())
		if err != nil {
			h.log().Error("load match totals", "err", err)
			writeError(w, CodeArchiveFailure, "failed to load totals")
			return
		}
		resp.Archived = &totals
	}
	if h.Archive != nil {
		recent, err := h.Archive.Recent(r.Context(), 10)
		if err != nil {
			h.log().Warn("load recent matches", "err", err)
		} else {
			resp.Recent = recent
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Match looks in memory first, then the Redis archive, then Postgres.
func (h *AdminHandler) Match(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, CodeBadMatchID, "match id must be a uuid")
		return
	}

	rec, ok, err := h.Game.FinishedMatch(r.Context(), id)
	if err != nil && !errors.Is(err, game.ErrServerClosed) {
		writeError(w, CodeGameLoopDown, "game loop is not responding")
		return
	}
	if ok {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	if h.Archive != nil {
		rec, ok, err := h.Archive.LoadMatch(r.Context(), id.String())
		if err != nil {
			h.log().Warn("load archived match", "match", id, "err", err)
		} else if ok {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}

	if h.Results != nil {
		rec, err := h.Results.Get(r.Context(), id.String())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, rec)
			return
		case !errors.Is(err, store.ErrNotFound):
			h.log().Error("load match result", "match", id, "err", err)
			writeError(w, CodeArchiveFailure, "failed to load match")
			return
		}
	}

	writeError(w, CodeMatchNotFound, "match not found")
}

// Routes registers the admin API on mux behind bearer authentication.
func Routes(mux *http.ServeMux, h *AdminHandler, v TokenVerifier) {
	authed := AuthMiddleware(v)
	mux.Handle("GET /api/stats", authed(http.HandlerFunc(h.Stats)))
	mux.Handle("GET /api/matches/{id}", authed(http.HandlerFunc(h.Match)))
}
