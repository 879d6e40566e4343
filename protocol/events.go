package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/roster"
)

// Inbound discriminators.
const (
	ReplyYourID     = "your_id"
	ReplyEnterRoom  = "enter_room"
	ReplyExitRoom   = "exit_room"
	ReplyRoomList   = "room_list"
	ReplyCreateRoom = "create_room"
	ReplyResetGame  = "reset_game"

	BroadcastEnterRoom = "enter_room"
	BroadcastExitRoom  = "exit_room"
	BroadcastPutPiece  = "put_piece"
	BroadcastReset     = "reset"
	BroadcastRoomList  = "room_list"
)

var (
	// ErrNoDiscriminator means a frame carried neither "type" nor "msg_others".
	ErrNoDiscriminator = errors.New("frame has no type or msg_others field")

	// ErrMissingField means a recognized frame lacked a required data field.
	ErrMissingField = errors.New("missing required field")
)

// Event is a decoded inbound frame. The concrete type tells which one.
type Event interface {
	isEvent()
}

// YourID assigns the session identity.
type YourID struct {
	ID int
}

// RoomEntered confirms that this client entered Room.
type RoomEntered struct {
	Room Room
}

// RoomExited confirms that this client left its room.
type RoomExited struct{}

// RoomList carries the authority's room list. Broadcast is true when the
// list was pushed unprompted after another client created a room.
type RoomList struct {
	Rooms     []Room
	Broadcast bool
}

// RoomCreated acknowledges a create_room request.
type RoomCreated struct{}

// GameReset acknowledges a reset_game request. The board itself clears on
// the BoardReset broadcast.
type GameReset struct{}

// PlayerEntered announces another participant joining a room.
type PlayerEntered struct {
	// RoomID is zero when the frame does not name the room.
	RoomID   int
	PlayerID int
	Role     roster.Role
}

// PlayerExited announces another participant leaving a room.
type PlayerExited struct {
	RoomID   int
	PlayerID int
	Role     roster.Role
}

// PiecePlaced announces a move accepted by the authority.
type PiecePlaced struct {
	RoomID int
	Row    int
	Col    int
	Piece  board.Piece
}

// BoardReset announces that the room's board was cleared.
type BoardReset struct {
	RoomID int
}

// Rejected is a reply with "ok": false. Request names the command that was
// refused; Reason is the authority's data payload when it is a string.
type Rejected struct {
	Request string
	Reason  string
}

// Ignored is a well-formed frame with a discriminator this client does not
// handle.
type Ignored struct {
	Broadcast     bool
	Discriminator string
}

// Malformed is a frame that could not be decoded.
type Malformed struct {
	Raw []byte
	Err error
}

func (YourID) isEvent()        {}
func (RoomEntered) isEvent()   {}
func (RoomExited) isEvent()    {}
func (RoomList) isEvent()      {}
func (RoomCreated) isEvent()   {}
func (GameReset) isEvent()     {}
func (PlayerEntered) isEvent() {}
func (PlayerExited) isEvent()  {}
func (PiecePlaced) isEvent()   {}
func (BoardReset) isEvent()    {}
func (Rejected) isEvent()      {}
func (Ignored) isEvent()       {}
func (Malformed) isEvent()     {}

type envelope struct {
	OK        *bool           `json:"ok"`
	Type      *string         `json:"type"`
	MsgOthers *string         `json:"msg_others"`
	Data      json.RawMessage `json:"data"`
}

type participantData struct {
	RoomID     int  `json:"room_id"`
	PlayerID   *int `json:"player_id"`
	PlayerType *int `json:"player_type"`
}

type pieceData struct {
	RoomID    int  `json:"room_id"`
	Row       *int `json:"row_i"`
	Col       *int `json:"col_j"`
	PieceType *int `json:"piece_type"`
}

// Decode turns one inbound frame into an Event. It never fails: frames that
// cannot be decoded come back as Malformed and unknown discriminators as
// Ignored.
//
// Parameters:
//   - frame: The raw frame payload
//
// Returns:
//   - The decoded Event
func Decode(frame []byte) Event {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return malformed(frame, err)
	}

	switch {
	case env.Type != nil:
		return decodeReply(frame, env)
	case env.MsgOthers != nil:
		return decodeBroadcast(frame, env)
	default:
		return malformed(frame, ErrNoDiscriminator)
	}
}

func decodeReply(frame []byte, env envelope) Event {
	kind := *env.Type

	if env.OK != nil && !*env.OK {
		rej := Rejected{Request: kind}
		var reason string
		if json.Unmarshal(env.Data, &reason) == nil {
			rej.Reason = reason
		}
		return rej
	}

	switch kind {
	case ReplyYourID:
		var data struct {
			ID *int `json:"id"`
		}
		if err := unmarshalData(env.Data, &data); err != nil {
			return malformed(frame, err)
		}
		if data.ID == nil {
			return malformed(frame, missing(kind, "id"))
		}
		return YourID{ID: *data.ID}

	case ReplyEnterRoom:
		if len(env.Data) == 0 {
			return malformed(frame, missing(kind, "data"))
		}
		var room Room
		if err := json.Unmarshal(env.Data, &room); err != nil {
			return malformed(frame, err)
		}
		return RoomEntered{Room: room}

	case ReplyExitRoom:
		return RoomExited{}

	case ReplyRoomList:
		rooms, err := decodeRooms(env.Data)
		if err != nil {
			return malformed(frame, err)
		}
		return RoomList{Rooms: rooms}

	case ReplyCreateRoom:
		return RoomCreated{}

	case ReplyResetGame:
		return GameReset{}

	default:
		return Ignored{Discriminator: kind}
	}
}

func decodeBroadcast(frame []byte, env envelope) Event {
	kind := *env.MsgOthers

	switch kind {
	case BroadcastEnterRoom, BroadcastExitRoom:
		var data participantData
		if err := unmarshalData(env.Data, &data); err != nil {
			return malformed(frame, err)
		}
		if data.PlayerID == nil {
			return malformed(frame, missing(kind, "player_id"))
		}
		role := roster.Observer
		if data.PlayerType != nil {
			role = roster.RoleFromWire(*data.PlayerType)
		}
		if kind == BroadcastEnterRoom {
			return PlayerEntered{RoomID: data.RoomID, PlayerID: *data.PlayerID, Role: role}
		}
		return PlayerExited{RoomID: data.RoomID, PlayerID: *data.PlayerID, Role: role}

	case BroadcastPutPiece:
		var data pieceData
		if err := unmarshalData(env.Data, &data); err != nil {
			return malformed(frame, err)
		}
		switch {
		case data.Row == nil:
			return malformed(frame, missing(kind, "row_i"))
		case data.Col == nil:
			return malformed(frame, missing(kind, "col_j"))
		case data.PieceType == nil:
			return malformed(frame, missing(kind, "piece_type"))
		}
		return PiecePlaced{
			RoomID: data.RoomID,
			Row:    *data.Row,
			Col:    *data.Col,
			Piece:  board.PieceFromWire(*data.PieceType),
		}

	case BroadcastReset:
		var data struct {
			RoomID int `json:"room_id"`
		}
		if err := unmarshalData(env.Data, &data); err != nil {
			return malformed(frame, err)
		}
		return BoardReset{RoomID: data.RoomID}

	case BroadcastRoomList:
		rooms, err := decodeRooms(env.Data)
		if err != nil {
			return malformed(frame, err)
		}
		return RoomList{Rooms: rooms, Broadcast: true}

	default:
		return Ignored{Broadcast: true, Discriminator: kind}
	}
}

// unmarshalData decodes an object payload, treating an absent or null payload
// as an empty object.
func unmarshalData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	return json.Unmarshal(data, v)
}

func decodeRooms(data json.RawMessage) ([]Room, error) {
	rooms := []Room{}
	if err := unmarshalData(data, &rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func missing(kind, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingField, kind, field)
}

func malformed(frame []byte, err error) Malformed {
	return Malformed{Raw: append([]byte(nil), frame...), Err: err}
}
