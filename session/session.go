// Package session implements the client's top-level state machine: which
// screen is active, the identity assigned by the authority, the lobby's room
// list and, while in a room, its roster and match.
//
// A Session is driven from a single goroutine. Inbound frames are applied with
// HandleEvent, the end of the connection with HandleClosed, and user actions
// with the action methods, which send commands through the injected Sender.
//
//	OFFLINE --your_id--> LOBBY --enter_room reply--> IN_ROOM
//	IN_ROOM --exit_room reply--> LOBBY
//	any --connection closed--> OFFLINE
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/logger"
	"github.com/cyberinferno/gomoku-client/match"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/roster"
)

var (
	// ErrOffline is returned for actions that need an identity before one
	// has been assigned.
	ErrOffline = errors.New("session is offline")

	// ErrNotInRoom is returned for match actions outside a room.
	ErrNotInRoom = errors.New("session is not in a room")
)

// Screen is the active top-level view.
type Screen int

const (
	Offline Screen = iota
	Lobby
	InRoom
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case Lobby:
		return "lobby"
	case InRoom:
		return "in_room"
	default:
		return "offline"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Screen) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Sender delivers an outbound command to the remote authority.
type Sender interface {
	Send(cmd protocol.Command) error
}

// Options configures a Session.
type Options struct {
	// Rows and Cols size the board when the authority does not report one.
	Rows int
	Cols int
	// WinLength is the run length that wins; match.DefaultWinLength when zero.
	WinLength int
	Notifier  Notifier
	Logger    logger.Logger
}

// Session is the client state machine. It is not safe for concurrent use.
type Session struct {
	id       uuid.UUID
	sender   Sender
	notifier Notifier
	log      logger.Logger
	rows     int
	cols     int
	judge    match.Judge

	screen   Screen
	identity *int
	rooms    []protocol.Room
	draft    string
	room     *protocol.Room
	roster   *roster.Roster
	match    *match.Match
}

// New creates an OFFLINE session.
//
// Parameters:
//   - sender: Outbound command sink, usually the connection
//   - opts: Board defaults, notifier and logger
//
// Returns:
//   - A new Session
func New(sender Sender, opts Options) *Session {
	if opts.Rows <= 0 {
		opts.Rows = board.DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = board.DefaultCols
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	id := uuid.New()

	return &Session{
		id:       id,
		sender:   sender,
		notifier: opts.Notifier,
		log:      opts.Logger.With(logger.F("component", "session"), logger.F("session_id", id.String())),
		rows:     opts.Rows,
		cols:     opts.Cols,
		judge:    match.NewJudge(opts.WinLength),
		screen:   Offline,
	}
}

// ID returns the random id naming this session instance.
func (s *Session) ID() uuid.UUID { return s.id }

// Screen returns the active screen.
func (s *Session) Screen() Screen { return s.screen }

// Identity returns the identity assigned by the authority, if any.
func (s *Session) Identity() (int, bool) {
	if s.identity == nil {
		return 0, false
	}

	return *s.identity, true
}

// CurrentRoomID returns the id of the room the session is in, if any.
func (s *Session) CurrentRoomID() (int, bool) {
	if s.room == nil {
		return 0, false
	}

	return s.room.ID, true
}

// EnterRoom asks to join roomID. While a room is already held, nothing is
// sent.
//
// Returns:
//   - ErrOffline before an identity is assigned
//   - A send error
func (s *Session) EnterRoom(roomID int) error {
	if s.identity == nil {
		return ErrOffline
	}
	if s.room != nil {
		s.log.Debug("enter room ignored, already in a room", logger.F("room_id", s.room.ID), logger.F("requested", roomID))
		return nil
	}

	return s.send(protocol.EnterRoom{PlayerID: *s.identity, RoomID: roomID})
}

// ExitRoom asks to leave the current room. The room is kept until the
// authority confirms.
func (s *Session) ExitRoom() error {
	if s.room == nil {
		return ErrNotInRoom
	}

	return s.send(protocol.ExitRoom{PlayerID: *s.identity, RoomID: s.room.ID})
}

// SubmitMove requests a move on (row, col) for the local player.
//
// Returns:
//   - Whether a frame was sent; illegal moves are dropped without error
//   - ErrNotInRoom outside a room, or a send error
func (s *Session) SubmitMove(row, col int) (bool, error) {
	if s.match == nil {
		return false, ErrNotInRoom
	}

	return s.match.SubmitMove(row, col)
}

// ResetGame asks the authority to clear the board.
func (s *Session) ResetGame() error {
	if s.match == nil {
		return ErrNotInRoom
	}

	return s.match.RequestReset()
}

// SetRoomNameDraft records the lobby's room-name input.
func (s *Session) SetRoomNameDraft(text string) {
	s.draft = text
}

// CreateRoom asks the authority to create a room named after the current
// draft. A blank draft is not sent.
//
// Returns:
//   - Whether a frame was sent
//   - ErrOffline before an identity is assigned, or a send error
func (s *Session) CreateRoom() (bool, error) {
	if s.identity == nil {
		return false, ErrOffline
	}

	name := strings.TrimSpace(s.draft)
	if name == "" {
		return false, nil
	}

	if err := s.send(protocol.CreateRoom{RoomName: name}); err != nil {
		return false, err
	}

	return true, nil
}

// RequestRoomList asks the authority for the room list.
func (s *Session) RequestRoomList() error {
	if s.identity == nil {
		return ErrOffline
	}

	return s.send(protocol.ListRooms{})
}

// Rooms returns a copy of the last room list received.
func (s *Session) Rooms() []protocol.Room {
	return protocol.CloneRooms(s.rooms)
}

// HandleClosed moves the session to OFFLINE and forgets the identity and any
// room without an exit handshake.
func (s *Session) HandleClosed() {
	if s.screen != Offline {
		s.log.Info("connection closed", logger.F("screen", s.screen.String()))
	}

	s.screen = Offline
	s.identity = nil
	s.rooms = nil
	s.leaveRoom()
}

// HandleEvent applies one decoded inbound event.
//
// Parameters:
//   - ev: The event from protocol.Decode
//
// Returns:
//   - An error only when a follow-up command could not be sent; the event
//     itself has been applied
func (s *Session) HandleEvent(ev protocol.Event) error {
	switch e := ev.(type) {
	case protocol.YourID:
		return s.onIdentity(e)
	case protocol.RoomEntered:
		s.onRoomEntered(e)
	case protocol.RoomExited:
		return s.onRoomExited()
	case protocol.RoomList:
		s.rooms = protocol.CloneRooms(e.Rooms)
		s.log.Debug("room list updated", logger.F("rooms", len(e.Rooms)), logger.F("broadcast", e.Broadcast))
	case protocol.RoomCreated:
		if s.identity != nil {
			return s.send(protocol.ListRooms{})
		}
	case protocol.GameReset:
		s.log.Debug("reset acknowledged")
	case protocol.PlayerEntered:
		if s.inRoom(e.RoomID) {
			s.roster.PlayerEntered(e.PlayerID, e.Role)
		}
	case protocol.PlayerExited:
		if s.inRoom(e.RoomID) {
			s.onPlayerExited(e)
		}
	case protocol.PiecePlaced:
		if s.inRoom(e.RoomID) {
			s.onPiecePlaced(e)
		}
	case protocol.BoardReset:
		if s.inRoom(e.RoomID) {
			s.match.ApplyReset()
			s.log.Info("board reset", logger.F("room_id", s.room.ID))
		}
	case protocol.Rejected:
		s.log.Warn("request rejected", logger.F("request", e.Request), logger.F("reason", e.Reason))
	case protocol.Ignored:
		s.log.Debug("frame ignored", logger.F("discriminator", e.Discriminator), logger.F("broadcast", e.Broadcast))
	case protocol.Malformed:
		s.log.Debug("malformed frame", logger.F("err", e.Err), logger.F("raw", string(e.Raw)))
	default:
		s.log.Debug("unhandled event", logger.F("type", fmt.Sprintf("%T", ev)))
	}

	return nil
}

func (s *Session) onIdentity(e protocol.YourID) error {
	if s.identity != nil {
		s.log.Warn("identity already assigned", logger.F("identity", *s.identity), logger.F("offered", e.ID))
		return nil
	}

	id := e.ID
	s.identity = &id
	s.screen = Lobby
	s.log.Info("identity assigned", logger.F("identity", id))

	return s.send(protocol.ListRooms{})
}

func (s *Session) onRoomEntered(e protocol.RoomEntered) {
	if s.identity == nil {
		s.log.Debug("room entry before identity ignored", logger.F("room_id", e.Room.ID))
		return
	}
	if s.room != nil {
		s.log.Warn("room entry while in a room ignored", logger.F("room_id", s.room.ID), logger.F("entered", e.Room.ID))
		return
	}

	b, err := board.New(s.boardSize(e.Room))
	if err != nil {
		s.log.Warn("room reported unusable board size, using defaults", logger.F("err", err))
		b, _ = board.New(s.rows, s.cols)
	}

	room := e.Room.Clone()
	s.room = &room
	s.roster = roster.New(*s.identity, room.Seats, room.Observers)
	s.match = match.New(room.ID, b, s.roster.Self().Role.Piece(), s.judge, s.sender)
	s.screen = InRoom

	s.log.Info("entered room",
		logger.F("room_id", room.ID),
		logger.F("role", s.roster.Self().Role.String()),
		logger.F("rows", b.Rows()),
		logger.F("cols", b.Cols()),
	)
}

func (s *Session) boardSize(room protocol.Room) (int, int) {
	if room.Rows != 0 || room.Cols != 0 {
		return room.Rows, room.Cols
	}

	return s.rows, s.cols
}

func (s *Session) onRoomExited() error {
	if s.room == nil {
		return nil
	}

	s.log.Info("left room", logger.F("room_id", s.room.ID))
	s.leaveRoom()
	s.screen = Lobby

	return s.send(protocol.ListRooms{})
}

func (s *Session) onPlayerExited(e protocol.PlayerExited) {
	switch s.roster.PlayerExited(e.PlayerID, e.Role) {
	case roster.DepartureOpponent:
		s.notifier.Notify(Notice{Kind: OpponentLeft, Blocking: true, PlayerID: e.PlayerID})
	case roster.DeparturePlayer:
		s.notifier.Notify(Notice{Kind: PlayerLeft, Blocking: true, PlayerID: e.PlayerID})
	}
}

func (s *Session) onPiecePlaced(e protocol.PiecePlaced) {
	decided, err := s.match.ApplyMove(e.Row, e.Col, e.Piece)
	if err != nil {
		s.log.Debug("move dropped", logger.F("row", e.Row), logger.F("col", e.Col), logger.F("err", err))
		return
	}
	if !decided {
		return
	}

	outcome := s.match.Outcome()
	s.log.Info("game over", logger.F("room_id", s.room.ID), logger.F("outcome", outcome.Kind.String()), logger.F("winner", outcome.Winner.String()))
	s.notifier.Notify(Notice{Kind: GameOver, Outcome: &outcome})
}

// inRoom reports whether a broadcast for roomID applies to the current room.
// Broadcasts that do not name a room (roomID 0) apply to whichever room is
// held.
func (s *Session) inRoom(roomID int) bool {
	if s.room == nil {
		return false
	}

	return roomID == 0 || roomID == s.room.ID
}

func (s *Session) leaveRoom() {
	s.room = nil
	s.roster = nil
	s.match = nil
}

func (s *Session) send(cmd protocol.Command) error {
	if err := s.sender.Send(cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Name(), err)
	}

	return nil
}
