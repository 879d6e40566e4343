// Package protocol converts between typed client commands / server events and
// the wire format spoken with the remote authority.
//
// Outbound commands are a single text frame of newline-separated tokens; the
// first token names the command and the rest are positional arguments.
// Inbound frames are JSON objects discriminated either by "type" (a reply to
// this client) or by "msg_others" (a broadcast about another participant).
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cyberinferno/gomoku-client/board"
)

// Command names as they appear on the wire.
const (
	CommandCreateRoom = "create_room"
	CommandRoomList   = "room_list"
	CommandEnterRoom  = "enter_room"
	CommandExitRoom   = "exit_room"
	CommandResetGame  = "reset_game"
	CommandPutPiece   = "put_piece"
)

const fieldSeparator = "\n"

var (
	// ErrEmptyFrame is returned by ParseCommand for a frame with no tokens.
	ErrEmptyFrame = errors.New("empty frame")

	// ErrUnknownCommand is returned by ParseCommand for an unrecognized command name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrBadArguments is returned by ParseCommand when the argument count or
	// an integer argument is invalid.
	ErrBadArguments = errors.New("bad command arguments")
)

// Command is an outbound request to the remote authority.
type Command interface {
	// Name returns the wire command name.
	Name() string
	// Args returns the positional arguments, already string-encoded.
	Args() []string
}

// CreateRoom asks the authority to create a room with the given display name.
type CreateRoom struct {
	RoomName string
}

// ListRooms asks the authority for the current room list.
type ListRooms struct{}

// EnterRoom asks the authority to seat PlayerID in RoomID.
type EnterRoom struct {
	PlayerID int
	RoomID   int
}

// ExitRoom asks the authority to remove PlayerID from RoomID.
type ExitRoom struct {
	PlayerID int
	RoomID   int
}

// ResetGame asks the authority to clear the board of RoomID.
type ResetGame struct {
	RoomID int
}

// PutPiece asks the authority to place Piece at (Row, Col) in RoomID.
type PutPiece struct {
	RoomID int
	Row    int
	Col    int
	Piece  board.Piece
}

func (CreateRoom) Name() string { return CommandCreateRoom }
func (ListRooms) Name() string  { return CommandRoomList }
func (EnterRoom) Name() string  { return CommandEnterRoom }
func (ExitRoom) Name() string   { return CommandExitRoom }
func (ResetGame) Name() string  { return CommandResetGame }
func (PutPiece) Name() string   { return CommandPutPiece }

func (c CreateRoom) Args() []string { return []string{c.RoomName} }
func (ListRooms) Args() []string    { return nil }
func (c EnterRoom) Args() []string  { return ints(c.PlayerID, c.RoomID) }
func (c ExitRoom) Args() []string   { return ints(c.PlayerID, c.RoomID) }
func (c ResetGame) Args() []string  { return ints(c.RoomID) }
func (c PutPiece) Args() []string   { return ints(c.RoomID, c.Row, c.Col, int(c.Piece)) }

func ints(values ...int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}

	return out
}

// Encode renders a command as a wire frame. It does not validate argument
// semantics; an empty room name is encoded as-is.
//
// Parameters:
//   - cmd: The command to encode
//
// Returns:
//   - The text frame, e.g. "enter_room\n7\n3"
func Encode(cmd Command) string {
	tokens := append([]string{cmd.Name()}, cmd.Args()...)
	return strings.Join(tokens, fieldSeparator)
}

// ParseCommand is the authority-side inverse of Encode. The client never needs
// it at runtime; it exists so that test authorities and tools read frames
// exactly the way the remote side does.
//
// Parameters:
//   - frame: A text frame as produced by Encode
//
// Returns:
//   - The decoded Command
//   - ErrEmptyFrame, ErrUnknownCommand or ErrBadArguments on failure
func ParseCommand(frame string) (Command, error) {
	if frame == "" {
		return nil, ErrEmptyFrame
	}

	tokens := strings.Split(frame, fieldSeparator)
	name, args := tokens[0], tokens[1:]

	switch name {
	case CommandCreateRoom:
		if len(args) != 1 {
			return nil, argCountError(name, 1, len(args))
		}
		return CreateRoom{RoomName: args[0]}, nil

	case CommandRoomList:
		return ListRooms{}, nil

	case CommandEnterRoom, CommandExitRoom:
		v, err := parseInts(name, args, 2)
		if err != nil {
			return nil, err
		}
		if name == CommandEnterRoom {
			return EnterRoom{PlayerID: v[0], RoomID: v[1]}, nil
		}
		return ExitRoom{PlayerID: v[0], RoomID: v[1]}, nil

	case CommandResetGame:
		v, err := parseInts(name, args, 1)
		if err != nil {
			return nil, err
		}
		return ResetGame{RoomID: v[0]}, nil

	case CommandPutPiece:
		v, err := parseInts(name, args, 4)
		if err != nil {
			return nil, err
		}
		return PutPiece{RoomID: v[0], Row: v[1], Col: v[2], Piece: board.PieceFromWire(v[3])}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

func parseInts(name string, args []string, want int) ([]int, error) {
	if len(args) != want {
		return nil, argCountError(name, want, len(args))
	}

	out := make([]int, want)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %s argument %d: %v", ErrBadArguments, name, i+1, err)
		}
		out[i] = v
	}

	return out, nil
}

func argCountError(name string, want, got int) error {
	return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrBadArguments, name, want, got)
}
