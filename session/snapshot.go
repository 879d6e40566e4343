package session

import (
	"github.com/cyberinferno/gomoku-client/match"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/roster"
)

// Snapshot is an immutable projection of the session for display. It shares
// no memory with the live session.
type Snapshot struct {
	SessionID     string          `json:"session_id"`
	Screen        Screen          `json:"screen"`
	Identity      *int            `json:"identity,omitempty"`
	Rooms         []protocol.Room `json:"rooms"`
	RoomNameDraft string          `json:"room_name_draft"`
	Room          *RoomView       `json:"room,omitempty"`
}

// RoomView is the part of a Snapshot describing the current room.
type RoomView struct {
	Room      protocol.Room       `json:"room"`
	Self      roster.Participant  `json:"self"`
	Opponent  *roster.Participant `json:"opponent,omitempty"`
	Observers []int               `json:"observers"`
	Match     match.View          `json:"match"`
}

// Snapshot returns the current state projection.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:     s.id.String(),
		Screen:        s.screen,
		Rooms:         protocol.CloneRooms(s.rooms),
		RoomNameDraft: s.draft,
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}

	if s.room != nil {
		view := &RoomView{
			Room:      s.room.Clone(),
			Self:      s.roster.Self(),
			Observers: s.roster.Observers(),
			Match:     s.match.View(),
		}
		if opp, ok := s.roster.Opponent(); ok {
			view.Opponent = &opp
		}
		snap.Room = view
	}

	return snap
}
