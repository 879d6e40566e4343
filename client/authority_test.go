package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/roster"
)

// authority is a minimal in-test game server speaking the client protocol.
type authority struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	nextID   int
	nextRoom int
	peers    map[int]*peer
	rooms    map[int]*protocol.Room
	where    map[int]int
	requests map[string]int
}

type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) send(v any) {
	data, _ := json.Marshal(v)
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.WriteMessage(websocket.TextMessage, data)
}

func newAuthority(t *testing.T) *authority {
	t.Helper()
	a := &authority{
		t:        t,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		peers:    map[int]*peer{},
		rooms:    map[int]*protocol.Room{},
		where:    map[int]int{},
		requests: map[string]int{},
	}
	a.srv = httptest.NewServer(http.HandlerFunc(a.serve))
	t.Cleanup(a.srv.Close)

	return a
}

func (a *authority) url() string {
	return "ws" + strings.TrimPrefix(a.srv.URL, "http")
}

func (a *authority) requestCount(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[name]
}

// kick drops the connection of player id without a close handshake.
func (a *authority) kick(id int) {
	a.mu.Lock()
	p := a.peers[id]
	a.mu.Unlock()
	if p != nil {
		_ = p.conn.Close()
	}
}

func reply(kind string, data any) map[string]any {
	return map[string]any{"ok": true, "type": kind, "data": data}
}

func broadcast(kind string, data any) map[string]any {
	return map[string]any{"msg_others": kind, "data": data}
}

func (a *authority) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	a.mu.Lock()
	a.nextID++
	id := a.nextID
	p := &peer{conn: conn}
	a.peers[id] = p
	a.mu.Unlock()

	p.send(reply("your_id", map[string]int{"id": id}))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			a.leave(id)
			a.mu.Lock()
			delete(a.peers, id)
			a.mu.Unlock()
			return
		}

		cmd, err := protocol.ParseCommand(string(data))
		if err != nil {
			a.t.Errorf("authority got bad frame %q: %v", data, err)
			continue
		}
		a.handle(id, p, cmd)
	}
}

func (a *authority) handle(id int, p *peer, cmd protocol.Command) {
	a.mu.Lock()
	a.requests[cmd.Name()]++
	a.mu.Unlock()

	switch c := cmd.(type) {
	case protocol.ListRooms:
		p.send(reply("room_list", a.roomList()))

	case protocol.CreateRoom:
		a.mu.Lock()
		a.nextRoom++
		room := &protocol.Room{ID: a.nextRoom, Name: c.RoomName, Seats: map[int]roster.Role{}}
		a.rooms[room.ID] = room
		a.mu.Unlock()

		p.send(reply("create_room", map[string]any{"room": map[string]any{"id": room.ID, "name": room.Name}}))
		list := a.roomList()
		for _, other := range a.allPeers() {
			other.send(broadcast("room_list", list))
		}

	case protocol.EnterRoom:
		a.mu.Lock()
		room, ok := a.rooms[c.RoomID]
		if !ok {
			a.mu.Unlock()
			p.send(map[string]any{"ok": false, "type": "enter_room", "data": "no data"})
			return
		}
		role := roster.Observer
		switch {
		case !seatTaken(room, roster.PlayerOne):
			role = roster.PlayerOne
		case !seatTaken(room, roster.PlayerTwo):
			role = roster.PlayerTwo
		}
		if role == roster.Observer {
			room.Observers = append(room.Observers, id)
		} else {
			room.Seats[id] = role
		}
		a.where[id] = room.ID
		snapshot := room.Clone()
		a.mu.Unlock()

		p.send(reply("enter_room", snapshot))
		a.toRoom(room.ID, id, broadcast("enter_room", map[string]int{"player_id": id, "player_type": int(role), "room_id": room.ID}))

	case protocol.ExitRoom:
		a.leave(id)
		p.send(reply("exit_room", "no data"))

	case protocol.PutPiece:
		a.toRoom(c.RoomID, 0, broadcast("put_piece", map[string]int{
			"room_id": c.RoomID, "row_i": c.Row, "col_j": c.Col, "piece_type": int(c.Piece),
		}))

	case protocol.ResetGame:
		p.send(reply("reset_game", "no data"))
		a.toRoom(c.RoomID, 0, broadcast("reset", map[string]int{"room_id": c.RoomID}))
	}
}

func seatTaken(room *protocol.Room, role roster.Role) bool {
	for _, r := range room.Seats {
		if r == role {
			return true
		}
	}
	return false
}

func (a *authority) leave(id int) {
	a.mu.Lock()
	roomID, ok := a.where[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.where, id)
	room := a.rooms[roomID]
	role, seated := room.Seats[id]
	if seated {
		delete(room.Seats, id)
	} else {
		role = roster.Observer
		kept := room.Observers[:0]
		for _, o := range room.Observers {
			if o != id {
				kept = append(kept, o)
			}
		}
		room.Observers = kept
	}
	a.mu.Unlock()

	a.toRoom(roomID, id, broadcast("exit_room", map[string]int{"player_id": id, "player_type": int(role), "room_id": roomID}))
}

// toRoom sends v to every member of roomID except skip.
func (a *authority) toRoom(roomID, skip int, v any) {
	a.mu.Lock()
	var targets []*peer
	for pid, rid := range a.where {
		if rid == roomID && pid != skip {
			if p := a.peers[pid]; p != nil {
				targets = append(targets, p)
			}
		}
	}
	a.mu.Unlock()

	for _, p := range targets {
		p.send(v)
	}
}

func (a *authority) allPeers() []*peer {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*peer, 0, len(a.peers))
	for _, p := range a.peers {
		out = append(out, p)
	}
	return out
}

func (a *authority) roomList() []protocol.Room {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]protocol.Room, 0, len(a.rooms))
	for i := 1; i <= a.nextRoom; i++ {
		if r, ok := a.rooms[i]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}
