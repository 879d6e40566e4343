package session

import (
	"fmt"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/match"
)

// NoticeKind identifies a user-facing notice.
type NoticeKind int

const (
	// OpponentLeft is raised when the other seated player leaves while the
	// local player holds a seat.
	OpponentLeft NoticeKind = iota + 1
	// PlayerLeft is raised when a seated player leaves while the local
	// player is observing.
	PlayerLeft
	// GameOver is raised once when the judge records an outcome.
	GameOver
)

// String returns the notice kind name.
func (k NoticeKind) String() string {
	switch k {
	case OpponentLeft:
		return "opponent_left"
	case PlayerLeft:
		return "player_left"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notice is a user-facing message raised by the session. Blocking notices
// must be acknowledged by the user before play continues.
type Notice struct {
	Kind     NoticeKind     `json:"kind"`
	Blocking bool           `json:"blocking"`
	PlayerID int            `json:"player_id,omitempty"`
	Outcome  *match.Outcome `json:"outcome,omitempty"`
}

// Message renders the notice as text for display.
func (n Notice) Message() string {
	switch n.Kind {
	case OpponentLeft:
		return "Your opponent left the room."
	case PlayerLeft:
		return fmt.Sprintf("Player %d left the room.", n.PlayerID)
	case GameOver:
		if n.Outcome == nil || n.Outcome.Kind == match.Draw {
			return "Game over: draw."
		}
		if n.Outcome.Winner == board.Black {
			return "Game over: black wins."
		}
		return "Game over: white wins."
	default:
		return ""
	}
}

// Notifier receives notices from the session.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
