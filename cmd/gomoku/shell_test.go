package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/gomoku-client/client"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/roster"
	"github.com/cyberinferno/gomoku-client/session"
)

type fakeGame struct {
	calls   []string
	draft   string
	rooms   []protocol.Room
	snap    session.Snapshot
	updates chan client.Update
	unsub   bool
}

func newFakeGame() *fakeGame {
	return &fakeGame{updates: make(chan client.Update, 4)}
}

func (f *fakeGame) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeGame) Connect(context.Context) error { f.record("connect"); return nil }
func (f *fakeGame) Disconnect() error             { f.record("disconnect"); return nil }

func (f *fakeGame) Subscribe(int) (client.SubscriptionID, <-chan client.Update) {
	return 1, f.updates
}

func (f *fakeGame) Unsubscribe(client.SubscriptionID) { f.unsub = true }

func (f *fakeGame) Snapshot(context.Context) (session.Snapshot, error) { return f.snap, nil }

func (f *fakeGame) Rooms(context.Context) ([]protocol.Room, error) {
	f.record("rooms")
	return f.rooms, nil
}

func (f *fakeGame) RefreshRooms(context.Context) error { f.record("refresh"); return nil }

func (f *fakeGame) SetRoomNameDraft(_ context.Context, text string) error {
	f.draft = text
	return nil
}

func (f *fakeGame) CreateRoom(context.Context) (bool, error) {
	f.record("create " + f.draft)
	return strings.TrimSpace(f.draft) != "", nil
}

func (f *fakeGame) EnterRoom(_ context.Context, id int) error {
	f.record("enter " + protocol.Encode(protocol.EnterRoom{RoomID: id}))
	return nil
}

func (f *fakeGame) ExitRoom(context.Context) error { f.record("exit"); return nil }

func (f *fakeGame) SubmitMove(_ context.Context, row, col int) (bool, error) {
	f.record(protocol.Encode(protocol.PutPiece{Row: row, Col: col}))
	return row == 4, nil
}

func (f *fakeGame) ResetGame(context.Context) error { f.record("reset"); return nil }

func runShell(t *testing.T, g *fakeGame, input string) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, newShell(g, strings.NewReader(input), &out).run(ctx))

	return out.String()
}

func TestShell_Commands(t *testing.T) {
	g := newFakeGame()
	g.rooms = []protocol.Room{{ID: 3, Name: "den", Seats: map[int]roster.Role{9: roster.PlayerTwo, 4: roster.PlayerOne}}}

	out := runShell(t, g, strings.Join([]string{
		"rooms",
		"refresh",
		"create my room",
		"name   ",
		"create",
		"enter 3",
		"move 4 6",
		"move 1 1",
		"reset",
		"exit",
		"disconnect",
		"connect",
		"quit",
		"rooms",
	}, "\n"))

	assert.Equal(t, []string{
		"rooms",
		"refresh",
		"create my room",
		"create ",
		"enter enter_room\n0\n3",
		"put_piece\n0\n4\n6\n0",
		"put_piece\n0\n1\n1\n0",
		"reset",
		"exit",
		"disconnect",
		"connect",
	}, g.calls, "nothing runs after quit")
	assert.True(t, g.unsub)
	assert.Contains(t, out, "den")
	assert.Contains(t, out, "players=[4 9]")
	assert.Contains(t, out, "room name is empty")
	assert.Contains(t, out, "move not allowed")
}

func TestShell_BadInput(t *testing.T) {
	g := newFakeGame()
	out := runShell(t, g, "dance\nenter\nmove a b\nboard\n")

	assert.Empty(t, g.calls)
	assert.Contains(t, out, `unknown command "dance"`)
	assert.Contains(t, out, "want 1 numbers, got 0")
	assert.Contains(t, out, `bad number "a"`)
	assert.Contains(t, out, session.ErrNotInRoom.Error())
}

func TestShell_PrintsNotices(t *testing.T) {
	g := newFakeGame()
	g.updates <- client.Update{
		Snapshot: session.Snapshot{Screen: session.Lobby},
		Notices:  []session.Notice{{Kind: session.OpponentLeft, Blocking: true, PlayerID: 9}},
	}
	close(g.updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	blocked := &blockingReader{release: make(chan struct{})}
	defer close(blocked.release)
	require.NoError(t, newShell(g, blocked, &out).run(ctx))

	assert.Contains(t, out.String(), "screen: lobby")
	assert.Contains(t, out.String(), "[!] Your opponent left the room.")
}

// blockingReader never yields input until released.
type blockingReader struct {
	release chan struct{}
}

func (r *blockingReader) Read([]byte) (int, error) {
	<-r.release
	return 0, context.Canceled
}
