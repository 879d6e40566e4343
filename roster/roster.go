// Package roster tracks who is in the room from the local player's point of
// view: the local seat, the opponent, and the set of observers.
package roster

import (
	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/orderedset"
)

// Role is a participant's seat in a room. The numeric values are the wire
// values used by the remote authority.
type Role int

const (
	Observer  Role = -1
	PlayerOne Role = 0
	PlayerTwo Role = 1
)

// RoleFromWire converts a wire integer into a Role. Anything other than 0 or 1
// is an Observer.
func RoleFromWire(v int) Role {
	switch v {
	case 0:
		return PlayerOne
	case 1:
		return PlayerTwo
	default:
		return Observer
	}
}

// Piece returns the piece a role places: PlayerOne plays Black, PlayerTwo
// plays White and observers have no piece.
func (r Role) Piece() board.Piece {
	switch r {
	case PlayerOne:
		return board.Black
	case PlayerTwo:
		return board.White
	default:
		return board.Empty
	}
}

// IsPlayer reports whether the role holds one of the two seats.
func (r Role) IsPlayer() bool {
	return r == PlayerOne || r == PlayerTwo
}

// String returns a human-readable name for the role.
func (r Role) String() string {
	switch r {
	case PlayerOne:
		return "player one (black)"
	case PlayerTwo:
		return "player two (white)"
	default:
		return "observer"
	}
}

// Participant is an identity together with its role in the room.
type Participant struct {
	ID   int  `json:"id"`
	Role Role `json:"role"`
}

// Departure classifies an exit_room broadcast.
type Departure int

const (
	// DepartureNone means the broadcast changed nothing visible.
	DepartureNone Departure = iota
	// DepartureObserver means a known observer left.
	DepartureObserver
	// DepartureOpponent means a seated player left while the local player is seated.
	DepartureOpponent
	// DeparturePlayer means a seated player left while the local player is observing.
	DeparturePlayer
)

// Roster is the per-match participant list. It is not safe for concurrent use.
type Roster struct {
	self      Participant
	opponent  *Participant
	observers *orderedset.Set[int]
}

// New derives a roster from the room's seat assignment.
//
// Parameters:
//   - selfID: The local identity
//   - seats: The room's identity → role mapping for seated players
//   - observers: Identities the room lists as observers; self is skipped
//
// Returns:
//   - A Roster whose self role comes from seats (Observer when absent) and
//     whose opponent is the other seated identity, if any
func New(selfID int, seats map[int]Role, observers []int) *Roster {
	r := &Roster{
		self:      Participant{ID: selfID, Role: Observer},
		observers: orderedset.New[int](),
	}

	if role, ok := seats[selfID]; ok {
		r.self.Role = role
	}

	// An observer sees two seated players; the lower id is reported.
	for id, role := range seats {
		if id == selfID {
			continue
		}
		if r.opponent == nil || id < r.opponent.ID {
			r.opponent = &Participant{ID: id, Role: role}
		}
	}

	for _, id := range observers {
		if id == selfID {
			continue
		}
		if _, seated := seats[id]; seated {
			continue
		}
		r.observers.Add(id)
	}

	return r
}

// Self returns the local participant.
func (r *Roster) Self() Participant {
	return r.self
}

// Opponent returns the opponent, or false if the other seat is not known to
// be occupied.
func (r *Roster) Opponent() (Participant, bool) {
	if r.opponent == nil {
		return Participant{}, false
	}

	return *r.opponent, true
}

// Observers returns observer identities, most recent arrival first.
func (r *Roster) Observers() []int {
	return r.observers.Newest()
}

// PlayerEntered applies an enter_room broadcast about another participant.
//
// Parameters:
//   - id: Identity of the participant who entered
//   - role: The role the authority assigned to them
func (r *Roster) PlayerEntered(id int, role Role) {
	if id == r.self.ID {
		return
	}

	if !role.IsPlayer() {
		r.observers.Add(id)
		return
	}

	r.observers.Remove(id)
	r.opponent = &Participant{ID: id, Role: role}
}

// PlayerExited applies an exit_room broadcast and reports what kind of
// departure it was so the caller can surface a notice.
//
// Parameters:
//   - id: Identity of the participant who left
//   - role: The role the authority reported for them
//
// Returns:
//   - The Departure classification
func (r *Roster) PlayerExited(id int, role Role) Departure {
	if id == r.self.ID {
		return DepartureNone
	}

	if r.observers.Remove(id) {
		return DepartureObserver
	}

	if !role.IsPlayer() {
		return DepartureNone
	}

	if r.opponent != nil && r.opponent.ID == id {
		r.opponent = nil
	}

	if r.self.Role.IsPlayer() {
		return DepartureOpponent
	}

	return DeparturePlayer
}
