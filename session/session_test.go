package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/match"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	frames []string
	err    error
}

func (s *recordingSender) Send(cmd protocol.Command) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, protocol.Encode(cmd))
	return nil
}

func (s *recordingSender) take() []string {
	out := s.frames
	s.frames = nil
	return out
}

type recordingNotifier struct {
	notices []Notice
}

func (n *recordingNotifier) Notify(notice Notice) {
	n.notices = append(n.notices, notice)
}

type fixture struct {
	s        *Session
	sender   *recordingSender
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{sender: &recordingSender{}, notifier: &recordingNotifier{}}
	f.s = New(f.sender, Options{Notifier: f.notifier})
	return f
}

func (f *fixture) feed(t *testing.T, frame string) {
	t.Helper()
	require.NoError(t, f.s.HandleEvent(protocol.Decode([]byte(frame))))
}

const (
	frameYourID    = `{"ok":true,"type":"your_id","data":{"id":7}}`
	frameEnterRoom = `{"ok":true,"type":"enter_room","data":{"id":3,"name":"X","game_players":{"7":0,"9":1}}}`
)

// lobby brings the fixture to LOBBY with identity 7.
func (f *fixture) lobby(t *testing.T) {
	t.Helper()
	f.feed(t, frameYourID)
	f.sender.take()
}

// seated brings the fixture into room 3 as player one against 9.
func (f *fixture) seated(t *testing.T) {
	t.Helper()
	f.lobby(t)
	require.NoError(t, f.s.EnterRoom(3))
	f.feed(t, frameEnterRoom)
	f.sender.take()
}

func TestSession_IdentityMovesToLobby(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, Offline, f.s.Screen())

	f.feed(t, frameYourID)

	id, ok := f.s.Identity()
	require.True(t, ok)
	assert.Equal(t, 7, id)
	assert.Equal(t, Lobby, f.s.Screen())
	assert.Equal(t, []string{"room_list"}, f.sender.take(), "lobby asks for the room list")
}

func TestSession_EnterRoomBuildsMatch(t *testing.T) {
	f := newFixture(t)
	f.lobby(t)

	require.NoError(t, f.s.EnterRoom(3))
	assert.Equal(t, []string{"enter_room\n7\n3"}, f.sender.take())
	assert.Equal(t, Lobby, f.s.Screen(), "screen changes only on confirmation")

	f.feed(t, frameEnterRoom)

	assert.Equal(t, InRoom, f.s.Screen())
	snap := f.s.Snapshot()
	require.NotNil(t, snap.Room)
	assert.Equal(t, roster.Participant{ID: 7, Role: roster.PlayerOne}, snap.Room.Self)
	assert.Equal(t, board.Black, snap.Room.Match.Piece)
	require.NotNil(t, snap.Room.Opponent)
	assert.Equal(t, roster.Participant{ID: 9, Role: roster.PlayerTwo}, *snap.Room.Opponent)
	assert.Equal(t, board.DefaultRows, snap.Room.Match.Grid.Rows())
	assert.Equal(t, board.DefaultCols, snap.Room.Match.Grid.Cols())
}

func TestSession_BroadcastMoveUpdatesBoard(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	sent, err := f.s.SubmitMove(4, 6)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []string{"put_piece\n3\n4\n6\n0"}, f.sender.take())

	f.feed(t, `{"msg_others":"put_piece","data":{"row_i":4,"col_j":6,"piece_type":0}}`)
	assert.Equal(t, board.Black, f.s.Snapshot().Room.Match.Grid.At(4, 6))
}

func TestSession_OpponentLeftNotice(t *testing.T) {
	f := newFixture(t)
	f.seated(t)
	f.feed(t, `{"msg_others":"enter_room","data":{"player_id":20,"player_type":-1}}`)

	f.feed(t, `{"msg_others":"exit_room","data":{"player_id":9,"player_type":1}}`)

	require.Len(t, f.notifier.notices, 1)
	n := f.notifier.notices[0]
	assert.Equal(t, OpponentLeft, n.Kind)
	assert.True(t, n.Blocking)
	assert.Equal(t, 9, n.PlayerID)

	snap := f.s.Snapshot()
	assert.Equal(t, []int{20}, snap.Room.Observers, "observers unchanged")
	assert.Nil(t, snap.Room.Opponent)
}

func TestSession_ConnectionClosedGoesOffline(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	f.s.HandleClosed()

	assert.Equal(t, Offline, f.s.Screen())
	_, ok := f.s.Identity()
	assert.False(t, ok)
	_, ok = f.s.CurrentRoomID()
	assert.False(t, ok)
	assert.Empty(t, f.sender.take(), "no exit handshake")

	snap := f.s.Snapshot()
	assert.Nil(t, snap.Identity)
	assert.Nil(t, snap.Room)
}

func TestSession_EnterRoomIdempotence(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	require.NoError(t, f.s.EnterRoom(5))
	require.NoError(t, f.s.EnterRoom(3))
	assert.Empty(t, f.sender.take())

	roomID, ok := f.s.CurrentRoomID()
	require.True(t, ok)
	assert.Equal(t, 3, roomID)
}

func TestSession_OfflineActions(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.s.EnterRoom(3), ErrOffline)
	assert.ErrorIs(t, f.s.RequestRoomList(), ErrOffline)
	_, err := f.s.CreateRoom()
	assert.ErrorIs(t, err, ErrOffline)
	assert.ErrorIs(t, f.s.ExitRoom(), ErrNotInRoom)
	assert.ErrorIs(t, f.s.ResetGame(), ErrNotInRoom)
	_, err = f.s.SubmitMove(0, 0)
	assert.ErrorIs(t, err, ErrNotInRoom)
	assert.Empty(t, f.sender.take())
}

func TestSession_ExitRoom(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	require.NoError(t, f.s.ExitRoom())
	assert.Equal(t, []string{"exit_room\n7\n3"}, f.sender.take())
	assert.Equal(t, InRoom, f.s.Screen(), "room kept until confirmed")

	f.feed(t, `{"ok":true,"type":"exit_room","data":"no data"}`)
	assert.Equal(t, Lobby, f.s.Screen())
	assert.Nil(t, f.s.Snapshot().Room)
	assert.Equal(t, []string{"room_list"}, f.sender.take())

	require.NoError(t, f.s.EnterRoom(4))
	assert.Equal(t, []string{"enter_room\n7\n4"}, f.sender.take())
}

func TestSession_CreateRoom(t *testing.T) {
	f := newFixture(t)
	f.lobby(t)

	t.Run("blank draft is not sent", func(t *testing.T) {
		f.s.SetRoomNameDraft("   ")
		sent, err := f.s.CreateRoom()
		require.NoError(t, err)
		assert.False(t, sent)
		assert.Empty(t, f.sender.take())
	})

	t.Run("draft name is sent", func(t *testing.T) {
		f.s.SetRoomNameDraft("den")
		assert.Equal(t, "den", f.s.Snapshot().RoomNameDraft)
		sent, err := f.s.CreateRoom()
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, []string{"create_room\nden"}, f.sender.take())
	})

	t.Run("ack refreshes room list", func(t *testing.T) {
		f.feed(t, `{"ok":true,"type":"create_room","data":{"room":{"id":4,"name":"den"}}}`)
		assert.Equal(t, []string{"room_list"}, f.sender.take())
	})
}

func TestSession_RoomList(t *testing.T) {
	f := newFixture(t)
	f.lobby(t)

	f.feed(t, `{"ok":true,"type":"room_list","data":[{"id":1,"name":"a","game_players":{"2":0}}]}`)
	rooms := f.s.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "a", rooms[0].Name)

	rooms[0].Name = "mutated"
	assert.Equal(t, "a", f.s.Rooms()[0].Name)

	f.feed(t, `{"msg_others":"room_list","data":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`)
	assert.Len(t, f.s.Snapshot().Rooms, 2)
}

func TestSession_ObserverView(t *testing.T) {
	f := newFixture(t)
	f.lobby(t)
	require.NoError(t, f.s.EnterRoom(3))
	f.sender.take()
	f.feed(t, `{"ok":true,"type":"enter_room","data":{"id":3,"name":"X","game_players":{"1":0,"2":1},"game_observers":[7,8]}}`)

	snap := f.s.Snapshot()
	assert.Equal(t, roster.Observer, snap.Room.Self.Role)
	assert.Equal(t, board.Empty, snap.Room.Match.Piece)
	assert.Equal(t, []int{8}, snap.Room.Observers)

	sent, err := f.s.SubmitMove(0, 0)
	require.NoError(t, err)
	assert.False(t, sent, "observers cannot move")

	f.feed(t, `{"msg_others":"exit_room","data":{"player_id":2,"player_type":1}}`)
	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, PlayerLeft, f.notifier.notices[0].Kind)
	assert.Equal(t, "Player 2 left the room.", f.notifier.notices[0].Message())

	f.feed(t, `{"msg_others":"exit_room","data":{"player_id":8,"player_type":-1}}`)
	assert.Len(t, f.notifier.notices, 1, "observer departure is silent")
	assert.Empty(t, f.s.Snapshot().Room.Observers)
}

func TestSession_BoardSizeFromRoom(t *testing.T) {
	f := newFixture(t)
	f.lobby(t)
	require.NoError(t, f.s.EnterRoom(3))
	f.feed(t, `{"ok":true,"type":"enter_room","data":{"id":3,"name":"X","game_players":{"7":1},"game":{"row_size":10,"col_size":10}}}`)

	grid := f.s.Snapshot().Room.Match.Grid
	assert.Equal(t, 10, grid.Rows())
	assert.Equal(t, 10, grid.Cols())
	assert.Equal(t, board.White, f.s.Snapshot().Room.Match.Piece)
}

func TestSession_GameOverAndReset(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	for c := 0; c < 5; c++ {
		f.feed(t, `{"msg_others":"put_piece","data":{"row_i":2,"col_j":`+string(rune('0'+c))+`,"piece_type":1}}`)
	}

	require.Len(t, f.notifier.notices, 1)
	n := f.notifier.notices[0]
	assert.Equal(t, GameOver, n.Kind)
	assert.False(t, n.Blocking)
	require.NotNil(t, n.Outcome)
	assert.Equal(t, match.Win, n.Outcome.Kind)
	assert.Equal(t, "Game over: white wins.", n.Message())

	sent, err := f.s.SubmitMove(6, 6)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, f.s.ResetGame())
	assert.Equal(t, []string{"reset_game\n3"}, f.sender.take())
	f.feed(t, `{"ok":true,"type":"reset_game","data":"no data"}`)
	assert.Equal(t, board.White, f.s.Snapshot().Room.Match.Grid.At(2, 0))

	f.feed(t, `{"msg_others":"reset","data":{}}`)
	snap := f.s.Snapshot()
	assert.Equal(t, board.Empty, snap.Room.Match.Grid.At(2, 0))
	assert.False(t, snap.Room.Match.Outcome.Over())
}

func TestSession_BroadcastsOutsideRoom(t *testing.T) {
	f := newFixture(t)
	f.lobby(t)

	f.feed(t, `{"msg_others":"put_piece","data":{"row_i":1,"col_j":1,"piece_type":0}}`)
	f.feed(t, `{"msg_others":"exit_room","data":{"player_id":9,"player_type":1}}`)
	f.feed(t, `{"msg_others":"reset","data":{}}`)

	assert.Equal(t, Lobby, f.s.Screen())
	assert.Empty(t, f.notifier.notices)
}

func TestSession_BroadcastForOtherRoom(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	f.feed(t, `{"msg_others":"put_piece","data":{"room_id":8,"row_i":1,"col_j":1,"piece_type":1}}`)
	assert.Equal(t, board.Empty, f.s.Snapshot().Room.Match.Grid.At(1, 1))
}

func TestSession_NoiseDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	f.seated(t)
	before := f.s.Snapshot()

	f.feed(t, `garbage`)
	f.feed(t, `{"ok":true,"type":"chat","data":"hi"}`)
	f.feed(t, `{"ok":false,"type":"put_piece","data":"no data"}`)
	f.feed(t, `{"msg_others":"put_piece","data":{"row_i":40,"col_j":1,"piece_type":0}}`)
	f.feed(t, frameYourID)

	assert.Equal(t, before, f.s.Snapshot())
	assert.Empty(t, f.sender.take())
}

func TestSession_SendFailure(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("socket closed")

	err := f.s.HandleEvent(protocol.YourID{ID: 7})
	assert.ErrorIs(t, err, f.sender.err)
	assert.Equal(t, Lobby, f.s.Screen(), "identity applied even if the follow-up fails")
}

func TestSnapshot_JSON(t *testing.T) {
	f := newFixture(t)
	f.seated(t)

	data, err := json.Marshal(f.s.Snapshot())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "in_room", m["screen"])
	assert.EqualValues(t, 7, m["identity"])
	assert.Equal(t, f.s.ID().String(), m["session_id"])
}
