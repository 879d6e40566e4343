package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/match"
	"github.com/cyberinferno/gomoku-client/session"
)

// Healthz answers 200 while the process is up.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// SessionHandler serves the full session snapshot.
func SessionHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshot(w, r, src)
		if !ok {
			return
		}

		writeJSON(w, http.StatusOK, snap)
	}
}

type boardResponse struct {
	RoomID   int           `json:"room_id"`
	Grid     board.Grid    `json:"grid"`
	Piece    board.Piece   `json:"piece"`
	Outcome  match.Outcome `json:"outcome"`
	LastMove *match.Cell   `json:"last_move,omitempty"`
	Text     string        `json:"text"`
}

// BoardHandler serves the board of the current match. It answers 409 when the
// session is not in a room.
func BoardHandler(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := snapshot(w, r, src)
		if !ok {
			return
		}
		if snap.Room == nil {
			http.Error(w, "not in a room", http.StatusConflict)
			return
		}

		view := snap.Room.Match
		writeJSON(w, http.StatusOK, boardResponse{
			RoomID:   view.RoomID,
			Grid:     view.Grid,
			Piece:    view.Piece,
			Outcome:  view.Outcome,
			LastMove: view.LastMove,
			Text:     view.Grid.String(),
		})
	}
}

func snapshot(w http.ResponseWriter, r *http.Request, src Source) (session.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), SnapshotTimeout)
	defer cancel()

	snap, err := src.Snapshot(ctx)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		http.Error(w, err.Error(), status)
		return session.Snapshot{}, false
	}

	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
