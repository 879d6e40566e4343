// Package client binds a websocket connection to a session.Session. All
// session state lives on one event-loop goroutine: inbound frames,
// connection-state changes and user actions are messages on its inbox, and
// callers wait for replies on per-request channels. Subscribers receive an
// immutable snapshot after every change.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/logger"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/roomcache"
	"github.com/cyberinferno/gomoku-client/session"
	"github.com/cyberinferno/gomoku-client/wsclient"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("client is closed")

	// ErrDisconnected is returned by a room-list fetch still pending when the
	// connection drops.
	ErrDisconnected = errors.New("connection lost before the room list arrived")
)

const (
	defaultInboxSize  = 64
	defaultSubBuffer  = 16
	roomsCacheDefault = "default"
)

// Conn is the connection the client drives. *wsclient.Client implements it.
type Conn interface {
	Connect(ctx context.Context) error
	SendText(s string) error
	Disconnect() error
	Close() error
	OnConnectionState(handler wsclient.StateHandler)
	OnMessage(handler wsclient.MessageHandler)
	OnError(handler wsclient.ErrorHandler)
}

// Update is published to subscribers after the event loop handles a message
// that may have changed state.
type Update struct {
	Snapshot session.Snapshot
	Notices  []session.Notice
}

// Options configures a Client.
type Options struct {
	// Session carries board defaults and the win length; its Notifier and
	// Logger are replaced by the client's own.
	Session session.Options
	// Cache holds room lists; an in-memory cache when nil.
	Cache  roomcache.Cache
	Logger logger.Logger
	// InboxSize bounds queued messages before callers block.
	InboxSize int
}

// Client is a gomoku client. It is safe for concurrent use.
type Client struct {
	conn  Conn
	log   logger.Logger
	cache roomcache.Cache

	inbox chan message
	ctx   context.Context
	stop  context.CancelFunc
	done  chan struct{}
	subs  registry

	// Owned by the event loop.
	sess        *session.Session
	notices     []session.Notice
	roomWaiters []chan roomsResult
}

// New creates a client and starts its event loop. Call Connect to dial and
// Close to shut down.
//
// Parameters:
//   - conn: The connection to drive
//   - opts: Session, cache and logging settings
//
// Returns:
//   - A running *Client
func New(conn Conn, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}
	if opts.Cache == nil {
		opts.Cache = roomcache.NewMemory(roomsCacheDefault, roomcache.DefaultTTL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:  conn,
		log:   opts.Logger.With(logger.F("component", "client")),
		cache: opts.Cache,
		inbox: make(chan message, opts.InboxSize),
		ctx:   ctx,
		stop:  cancel,
		done:  make(chan struct{}),
	}

	sessOpts := opts.Session
	sessOpts.Logger = opts.Logger
	sessOpts.Notifier = session.NotifierFunc(c.collectNotice)
	c.sess = session.New(connSender{conn: conn}, sessOpts)

	conn.OnMessage(func(e wsclient.MessageEvent) {
		c.enqueue(frameMsg{data: e.Data})
	})
	conn.OnConnectionState(func(e wsclient.StateEvent) {
		c.enqueue(stateMsg{event: e})
	})
	conn.OnError(func(e wsclient.ErrorEvent) {
		c.log.Warn("connection error", logger.F("err", e.Err))
	})

	go c.loop()

	return c
}

// Connect dials the authority.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if err := c.conn.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	return nil
}

// Disconnect drops the connection. The session moves to OFFLINE without an
// exit handshake.
func (c *Client) Disconnect() error {
	return c.conn.Disconnect()
}

// Close stops the event loop, closes the connection and every subscriber
// channel. It is idempotent.
func (c *Client) Close() error {
	// The loop must stop first: connection handlers block on the inbox until
	// the client context is cancelled, and the connection waits for them.
	c.stop()
	<-c.done

	return c.conn.Close()
}

// Subscribe registers for updates. The channel is closed by Unsubscribe or
// Close. Updates are dropped for a subscriber whose buffer is full.
//
// Parameters:
//   - buffer: Channel capacity; a default is used when non-positive
//
// Returns:
//   - The subscription id and the update channel
func (c *Client) Subscribe(buffer int) (SubscriptionID, <-chan Update) {
	if buffer <= 0 {
		buffer = defaultSubBuffer
	}

	id, ch := c.subs.add(buffer)

	select {
	case <-c.done:
		if ch, ok := c.subs.remove(id); ok {
			close(ch)
		}
	default:
	}

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Client) Unsubscribe(id SubscriptionID) {
	select {
	case c.inbox <- unsubscribeMsg{id: id}:
	case <-c.done:
		if ch, ok := c.subs.remove(id); ok {
			close(ch)
		}
	}
}

// Snapshot returns the current session state.
func (c *Client) Snapshot(ctx context.Context) (session.Snapshot, error) {
	var snap session.Snapshot
	err := c.send(ctx, callMsg{readOnly: true, fn: func(s *session.Session) error {
		snap = s.Snapshot()
		return nil
	}})

	return snap, err
}

// EnterRoom asks to join roomID. It is a no-op while already in a room.
func (c *Client) EnterRoom(ctx context.Context, roomID int) error {
	return c.call(ctx, func(s *session.Session) error { return s.EnterRoom(roomID) })
}

// ExitRoom asks to leave the current room.
func (c *Client) ExitRoom(ctx context.Context) error {
	return c.call(ctx, (*session.Session).ExitRoom)
}

// ResetGame asks the authority to clear the board.
func (c *Client) ResetGame(ctx context.Context) error {
	return c.call(ctx, (*session.Session).ResetGame)
}

// RefreshRooms asks the authority for a fresh room list.
func (c *Client) RefreshRooms(ctx context.Context) error {
	return c.call(ctx, (*session.Session).RequestRoomList)
}

// SetRoomNameDraft records the lobby's room-name input.
func (c *Client) SetRoomNameDraft(ctx context.Context, text string) error {
	return c.call(ctx, func(s *session.Session) error {
		s.SetRoomNameDraft(text)
		return nil
	})
}

// CreateRoom creates a room named after the current draft.
//
// Returns:
//   - Whether a request was sent; a blank draft sends nothing
//   - session.ErrOffline, a send error or a context error
func (c *Client) CreateRoom(ctx context.Context) (bool, error) {
	var sent bool
	err := c.call(ctx, func(s *session.Session) error {
		var err error
		sent, err = s.CreateRoom()
		return err
	})

	return sent, err
}

// SubmitMove requests a move at (row, col).
//
// Returns:
//   - Whether a request was sent; illegal moves send nothing
//   - session.ErrNotInRoom, a send error or a context error
func (c *Client) SubmitMove(ctx context.Context, row, col int) (bool, error) {
	var sent bool
	err := c.call(ctx, func(s *session.Session) error {
		var err error
		sent, err = s.SubmitMove(row, col)
		return err
	})

	return sent, err
}

// Click maps a pointer position on the rendered board to a cell and submits a
// move there. Clicks on grid lines or outside the board send nothing.
func (c *Client) Click(ctx context.Context, layout board.Layout, x, y float64) (bool, error) {
	var sent bool
	err := c.call(ctx, func(s *session.Session) error {
		snap := s.Snapshot()
		if snap.Room == nil {
			return session.ErrNotInRoom
		}

		grid := snap.Room.Match.Grid
		row, col, ok := layout.CellAt(x, y, grid.Rows(), grid.Cols())
		if !ok {
			return nil
		}

		var err error
		sent, err = s.SubmitMove(row, col)
		return err
	})

	return sent, err
}

// Rooms returns the room list, served from the cache while fresh and fetched
// from the authority otherwise.
func (c *Client) Rooms(ctx context.Context) ([]protocol.Room, error) {
	return c.cache.GetOrFetch(ctx, c.fetchRooms)
}

func (c *Client) fetchRooms(ctx context.Context) ([]protocol.Room, error) {
	waiter := make(chan roomsResult, 1)
	err := c.call(ctx, func(s *session.Session) error {
		if err := s.RequestRoomList(); err != nil {
			return err
		}
		c.roomWaiters = append(c.roomWaiters, waiter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	select {
	case res := <-waiter:
		return res.rooms, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// call runs fn on the event loop and waits for its result.
func (c *Client) call(ctx context.Context, fn func(s *session.Session) error) error {
	return c.send(ctx, callMsg{fn: fn})
}

func (c *Client) send(ctx context.Context, msg callMsg) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reply := make(chan error, 1)
	msg.reply = reply

	select {
	case c.inbox <- msg:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// enqueue is used by connection handlers, which run on the connection's read
// goroutine, so inbound order is kept.
func (c *Client) enqueue(m message) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Client) collectNotice(n session.Notice) {
	c.notices = append(c.notices, n)
}

type connSender struct {
	conn Conn
}

func (s connSender) Send(cmd protocol.Command) error {
	return s.conn.SendText(protocol.Encode(cmd))
}
