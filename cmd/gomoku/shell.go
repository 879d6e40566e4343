package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cyberinferno/gomoku-client/client"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/session"
)

// game is the part of *client.Client the shell drives.
type game interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Subscribe(buffer int) (client.SubscriptionID, <-chan client.Update)
	Unsubscribe(id client.SubscriptionID)
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Rooms(ctx context.Context) ([]protocol.Room, error)
	RefreshRooms(ctx context.Context) error
	SetRoomNameDraft(ctx context.Context, text string) error
	CreateRoom(ctx context.Context) (bool, error)
	EnterRoom(ctx context.Context, roomID int) error
	ExitRoom(ctx context.Context) error
	SubmitMove(ctx context.Context, row, col int) (bool, error)
	ResetGame(ctx context.Context) error
}

var errQuit = errors.New("quit")

const helpText = `commands:
  rooms              list rooms
  refresh            ask the server for a fresh room list
  name <text>        set the room name draft
  create [name]      create a room from the draft
  enter <room id>    enter a room
  exit               leave the current room
  move <row> <col>   place your piece
  reset              clear the board
  board              show the board
  status             show the session
  disconnect         drop the connection
  connect            reconnect
  quit               leave the program`

type shell struct {
	game   game
	in     io.Reader
	out    io.Writer
	screen session.Screen
}

func newShell(g game, in io.Reader, out io.Writer) *shell {
	return &shell{game: g, in: in, out: out}
}

// run reads commands until quit, end of input or ctx is done. Updates from the
// client are printed between commands.
func (sh *shell) run(ctx context.Context) error {
	id, updates := sh.game.Subscribe(32)
	defer sh.game.Unsubscribe(id)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(sh.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(sh.out, `type "help" for commands`)

	for {
		select {
		case <-ctx.Done():
			return nil

		case u, ok := <-updates:
			if !ok {
				return nil
			}
			sh.show(u)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := sh.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintln(sh.out, "error:", err)
			}
		}
	}
}

func (sh *shell) show(u client.Update) {
	if u.Snapshot.Screen != sh.screen {
		sh.screen = u.Snapshot.Screen
		fmt.Fprintln(sh.out, "screen:", sh.screen)
		if sh.screen == session.InRoom && u.Snapshot.Room != nil {
			sh.printRoom(u.Snapshot.Room)
		}
	}

	for _, n := range u.Notices {
		prefix := "*"
		if n.Blocking {
			prefix = "!"
		}
		fmt.Fprintf(sh.out, "[%s] %s\n", prefix, n.Message())
	}
}

func (sh *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]

	switch fields[0] {
	case "help", "?":
		fmt.Fprintln(sh.out, helpText)

	case "quit", "q":
		return errQuit

	case "rooms":
		rooms, err := sh.game.Rooms(ctx)
		if err != nil {
			return err
		}
		sh.printRooms(rooms)

	case "refresh":
		return sh.game.RefreshRooms(ctx)

	case "name":
		return sh.game.SetRoomNameDraft(ctx, strings.Join(args, " "))

	case "create":
		if len(args) > 0 {
			if err := sh.game.SetRoomNameDraft(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
		}
		sent, err := sh.game.CreateRoom(ctx)
		if err != nil {
			return err
		}
		if !sent {
			fmt.Fprintln(sh.out, "room name is empty")
		}

	case "enter":
		ids, err := ints(args, 1)
		if err != nil {
			return err
		}
		return sh.game.EnterRoom(ctx, ids[0])

	case "exit":
		return sh.game.ExitRoom(ctx)

	case "move":
		rc, err := ints(args, 2)
		if err != nil {
			return err
		}
		sent, err := sh.game.SubmitMove(ctx, rc[0], rc[1])
		if err != nil {
			return err
		}
		if !sent {
			fmt.Fprintln(sh.out, "move not allowed")
		}

	case "reset":
		return sh.game.ResetGame(ctx)

	case "board", "status":
		snap, err := sh.game.Snapshot(ctx)
		if err != nil {
			return err
		}
		if fields[0] == "status" {
			sh.printStatus(snap)
			return nil
		}
		if snap.Room == nil {
			return session.ErrNotInRoom
		}
		sh.printRoom(snap.Room)

	case "disconnect":
		return sh.game.Disconnect()

	case "connect":
		return sh.game.Connect(ctx)

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}

	return nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(args))
	}

	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		out[i] = v
	}

	return out, nil
}

func (sh *shell) printRooms(rooms []protocol.Room) {
	if len(rooms) == 0 {
		fmt.Fprintln(sh.out, "no rooms")
		return
	}
	for _, r := range rooms {
		fmt.Fprintf(sh.out, "%4d  %-20s players=%v observers=%d\n", r.ID, r.Name, r.SeatedIDs(), len(r.Observers))
	}
}

func (sh *shell) printStatus(snap session.Snapshot) {
	fmt.Fprintln(sh.out, "screen:", snap.Screen)
	if snap.Identity != nil {
		fmt.Fprintln(sh.out, "player id:", *snap.Identity)
	}
	if snap.RoomNameDraft != "" {
		fmt.Fprintf(sh.out, "room name draft: %q\n", snap.RoomNameDraft)
	}
	if snap.Room != nil {
		fmt.Fprintf(sh.out, "room: %d %s\n", snap.Room.Room.ID, snap.Room.Room.Name)
	}
}

func (sh *shell) printRoom(view *session.RoomView) {
	fmt.Fprintf(sh.out, "room %d %q, you are %s\n", view.Room.ID, view.Room.Name, view.Self.Role)
	if view.Opponent != nil {
		fmt.Fprintf(sh.out, "opponent: player %d\n", view.Opponent.ID)
	}
	if len(view.Observers) > 0 {
		fmt.Fprintf(sh.out, "observers: %v\n", view.Observers)
	}
	fmt.Fprint(sh.out, view.Match.Grid.String())
	if view.Match.Outcome.Over() {
		fmt.Fprintln(sh.out, "game over:", view.Match.Outcome.Kind)
	}
}
