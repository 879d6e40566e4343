package protocol

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cyberinferno/gomoku-client/roster"
)

// Room is a match context as described by the remote authority.
type Room struct {
	ID        int
	Name      string
	Seats     map[int]roster.Role
	Observers []int
	// Rows and Cols are the board size the authority reports for the room;
	// zero when it does not report one.
	Rows int
	Cols int
}

type wireGame struct {
	RowSize int `json:"row_size"`
	ColSize int `json:"col_size"`
}

type wireRoom struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	GamePlayers   map[string]int `json:"game_players"`
	GameObservers []int          `json:"game_observers"`
	Game          *wireGame      `json:"game,omitempty"`
}

// UnmarshalJSON decodes the authority's room object, whose seat map is keyed
// by stringified player ids.
func (r *Room) UnmarshalJSON(data []byte) error {
	var w wireRoom
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	seats := make(map[int]roster.Role, len(w.GamePlayers))
	for key, role := range w.GamePlayers {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("room %d: bad player id %q: %w", w.ID, key, err)
		}
		seats[id] = roster.RoleFromWire(role)
	}

	*r = Room{
		ID:        w.ID,
		Name:      w.Name,
		Seats:     seats,
		Observers: w.GameObservers,
	}
	if w.Game != nil {
		r.Rows = w.Game.RowSize
		r.Cols = w.Game.ColSize
	}

	return nil
}

// MarshalJSON encodes the room in the authority's wire shape.
func (r Room) MarshalJSON() ([]byte, error) {
	w := wireRoom{
		ID:            r.ID,
		Name:          r.Name,
		GamePlayers:   make(map[string]int, len(r.Seats)),
		GameObservers: r.Observers,
	}
	if w.GameObservers == nil {
		w.GameObservers = []int{}
	}
	for id, role := range r.Seats {
		w.GamePlayers[strconv.Itoa(id)] = int(role)
	}
	if r.Rows > 0 || r.Cols > 0 {
		w.Game = &wireGame{RowSize: r.Rows, ColSize: r.Cols}
	}

	return json.Marshal(w)
}

// Clone returns a deep copy of the room.
func (r Room) Clone() Room {
	out := r
	out.Seats = make(map[int]roster.Role, len(r.Seats))
	for id, role := range r.Seats {
		out.Seats[id] = role
	}
	if r.Observers != nil {
		out.Observers = append([]int(nil), r.Observers...)
	}

	return out
}

// SeatedIDs returns the identities holding a seat, in ascending order.
func (r Room) SeatedIDs() []int {
	ids := make([]int, 0, len(r.Seats))
	for id := range r.Seats {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}

// CloneRooms deep-copies a room list.
func CloneRooms(rooms []Room) []Room {
	if rooms == nil {
		return nil
	}

	out := make([]Room, len(rooms))
	for i, r := range rooms {
		out[i] = r.Clone()
	}

	return out
}
