// Package statusapi serves a read-only HTTP view of a running client: a health
// probe, the session snapshot and the board of the current match.
package statusapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cyberinferno/gomoku-client/logger"
	"github.com/cyberinferno/gomoku-client/session"
)

// Source supplies session snapshots. *client.Client implements it.
type Source interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
}

// SnapshotTimeout bounds how long a handler waits for the client's event loop.
const SnapshotTimeout = 2 * time.Second

// Routes builds the status router.
//
// Parameters:
//   - src: Where snapshots come from
//   - log: Request logger; nothing is logged when nil
//
// Returns:
//   - The HTTP handler
func Routes(src Source, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", Healthz)
	r.Get("/session", SessionHandler(src))
	r.Get("/board", BoardHandler(src))

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("status request",
				logger.F("method", r.Method),
				logger.F("path", r.URL.Path),
				logger.F("status", ww.Status()),
				logger.F("took", time.Since(start).String()),
			)
		})
	}
}
