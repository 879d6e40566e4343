package client

import (
	"github.com/cyberinferno/gomoku-client/logger"
	"github.com/cyberinferno/gomoku-client/protocol"
	"github.com/cyberinferno/gomoku-client/session"
	"github.com/cyberinferno/gomoku-client/wsclient"
)

type message interface{ isMessage() }

type frameMsg struct {
	data []byte
}

type stateMsg struct {
	event wsclient.StateEvent
}

type callMsg struct {
	fn    func(s *session.Session) error
	reply chan error
	// readOnly calls do not publish an update.
	readOnly bool
}

type roomsResult struct {
	rooms []protocol.Room
	err   error
}

type unsubscribeMsg struct {
	id SubscriptionID
}

func (frameMsg) isMessage()       {}
func (stateMsg) isMessage()       {}
func (callMsg) isMessage()        {}
func (unsubscribeMsg) isMessage() {}

func (c *Client) loop() {
	defer close(c.done)
	defer c.closeSubscribers()

	for {
		select {
		case <-c.ctx.Done():
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case frameMsg:
				c.handleFrame(msg.data)
				c.publish()

			case stateMsg:
				if c.handleState(msg.event) {
					c.publish()
				}

			case callMsg:
				msg.reply <- msg.fn(c.sess)
				if !msg.readOnly {
					c.publish()
				}

			case unsubscribeMsg:
				if ch, ok := c.subs.remove(msg.id); ok {
					close(ch)
				}
			}
		}
	}
}

func (c *Client) handleFrame(data []byte) {
	ev := protocol.Decode(data)

	if list, ok := ev.(protocol.RoomList); ok {
		if err := c.cache.Store(c.ctx, list.Rooms); err != nil {
			c.log.Warn("caching room list failed", logger.F("err", err))
		}
		c.releaseWaiters(roomsResult{rooms: list.Rooms})
	}

	if err := c.sess.HandleEvent(ev); err != nil {
		c.log.Warn("follow-up request failed", logger.F("err", err))
	}
}

// handleState reports whether the session changed.
func (c *Client) handleState(e wsclient.StateEvent) bool {
	switch e.State {
	case wsclient.Connected:
		c.log.Info("connected", logger.F("url", e.URL))
		return false

	case wsclient.Disconnected, wsclient.Reconnecting, wsclient.Closed:
		c.releaseWaiters(roomsResult{err: ErrDisconnected})
		if c.sess.Screen() == session.Offline {
			return false
		}
		if e.Err != nil {
			c.log.Info("disconnected", logger.F("url", e.URL), logger.F("err", e.Err))
		}
		c.sess.HandleClosed()
		if err := c.cache.Invalidate(c.ctx); err != nil {
			c.log.Warn("invalidating room cache failed", logger.F("err", err))
		}
		return true

	default:
		return false
	}
}

// releaseWaiters answers every pending room-list fetch. Waiter channels are
// buffered for one result.
func (c *Client) releaseWaiters(res roomsResult) {
	for _, w := range c.roomWaiters {
		if res.err == nil {
			w <- roomsResult{rooms: protocol.CloneRooms(res.rooms)}
			continue
		}
		w <- res
	}
	c.roomWaiters = nil
}

// publish sends the current snapshot and pending notices to every
// subscriber without blocking.
func (c *Client) publish() {
	update := Update{Snapshot: c.sess.Snapshot(), Notices: c.notices}
	c.notices = nil

	c.subs.each(func(id SubscriptionID, ch chan Update) bool {
		select {
		case ch <- update:
		default:
			c.log.Debug("subscriber full, update dropped", logger.F("subscription", uint32(id)))
		}
		return true
	})
}

func (c *Client) closeSubscribers() {
	c.subs.each(func(id SubscriptionID, _ chan Update) bool {
		if ch, ok := c.subs.remove(id); ok {
			close(ch)
		}
		return true
	})
}
