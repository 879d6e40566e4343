// Package wsclient provides an event-driven websocket client that notifies
// callers of connection state changes, received messages, and errors via
// registered handlers. It supports optional auto-reconnect and configurable
// timeouts.
//
// Handlers run synchronously on the client's read goroutine, so messages are
// delivered one at a time in arrival order. A handler that blocks stalls
// reading; hand work off to another goroutine if it may take long.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("client is closed")

	// ErrNotConnected is returned by Send when there is no open connection.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected is returned by Connect while connected or connecting.
	ErrAlreadyConnected = errors.New("already connected or connecting")
)

// State is the current state of the connection.
type State int

const (
	Disconnected State = iota // Not connected and not attempting to connect
	Connecting                // Dial in progress
	Connected                 // Handshake completed
	Reconnecting              // Connection lost, waiting to redial
	Closed                    // Client shut down for good
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent is emitted when the connection state changes.
type StateEvent struct {
	State     State
	URL       string
	Timestamp time.Time
	// Err is set when the change was caused by an error.
	Err error
}

// MessageEvent is emitted for each data message read from the connection.
type MessageEvent struct {
	Data      []byte
	Timestamp time.Time
}

// ErrorEvent is emitted when a dial, read or write fails.
type ErrorEvent struct {
	Err       error
	Timestamp time.Time
}

// StateHandler is called on state changes.
type StateHandler func(event StateEvent)

// MessageHandler is called for each received message.
type MessageHandler func(event MessageEvent)

// ErrorHandler is called when an error occurs.
type ErrorHandler func(event ErrorEvent)

// Config holds configuration for the websocket client.
type Config struct {
	// URL is the ws:// or wss:// endpoint.
	URL string
	// Header is sent with the opening handshake.
	Header http.Header
	// AutoReconnect redials after the connection is lost unexpectedly.
	AutoReconnect bool
	// ReconnectInterval is the delay between redial attempts.
	ReconnectInterval time.Duration
	// HandshakeTimeout bounds the opening handshake; 0 means no limit.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds a single write; 0 means no limit.
	WriteTimeout time.Duration
	// ReadLimit is the largest accepted message in bytes; 0 means no limit.
	ReadLimit int64
}

// DefaultConfig returns a Config for url with AutoReconnect off, a 5s
// reconnect interval, 10s handshake and write timeouts and a 1 MiB read limit.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		ReconnectInterval: 5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadLimit:         1 << 20,
	}
}

// Client is a websocket client that reports its lifecycle through handlers.
// Register handlers, then call Connect. It is safe for concurrent use.
type Client struct {
	config Config
	dialer *websocket.Dialer

	mu        sync.RWMutex
	conn      *websocket.Conn
	state     State
	closed    bool
	onState   StateHandler
	onMessage MessageHandler
	onError   ErrorHandler

	writeMu sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a client in Disconnected state.
//
// Parameters:
//   - config: Endpoint and behaviour settings (e.g. from DefaultConfig)
//
// Returns:
//   - A new *Client; call Close when done to release resources
func New(config Config) *Client {
	return &Client{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
		},
		state: Disconnected,
		stop:  make(chan struct{}),
	}
}

// OnConnectionState registers the state handler, replacing any previous one.
func (c *Client) OnConnectionState(handler StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = handler
}

// OnMessage registers the message handler, replacing any previous one.
func (c *Client) OnMessage(handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = handler
}

// OnError registers the error handler, replacing any previous one.
func (c *Client) OnError(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

// Connect dials the configured URL and starts the read goroutine.
//
// Parameters:
//   - ctx: Bounds the dial and handshake
//
// Returns:
//   - nil on success; ErrClosed, ErrAlreadyConnected or the dial error
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == Connected || c.state == Connecting || c.state == Reconnecting {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.wg.Add(1)
	go c.run(conn)

	return nil
}

// Send writes data as one text message.
//
// Returns:
//   - ErrNotConnected without an open connection, or the write error
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout)); err != nil {
			return err
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.emitError(err)
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// SendText writes s as one text message.
func (c *Client) SendText(s string) error {
	return c.Send([]byte(s))
}

// Disconnect closes the current connection with a normal close frame and
// moves to Disconnected without reconnecting. Connect may be called again.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	err := closeConn(conn, c.config.WriteTimeout)
	c.setState(Disconnected, nil)

	return err
}

// Close shuts the client down, closes the connection and waits for the read
// goroutine to exit. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = closeConn(conn, c.config.WriteTimeout)
	}

	close(c.stop)
	c.wg.Wait()
	c.setState(Closed, nil)

	return err
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the client is in Connected state.
func (c *Client) IsConnected() bool {
	return c.State() == Connected
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	c.setState(Connecting, nil)

	conn, resp, err := c.dialer.DialContext(ctx, c.config.URL, c.config.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		err = fmt.Errorf("dial %s: %w", c.config.URL, err)
		c.setState(Disconnected, err)
		c.emitError(err)
		return nil, err
	}

	if c.config.ReadLimit > 0 {
		conn.SetReadLimit(c.config.ReadLimit)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return nil, ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(Connected, nil)

	return conn, nil
}

// run reads from conn until it fails, then redials when AutoReconnect is set.
func (c *Client) run(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		err := c.readLoop(conn)

		c.mu.Lock()
		owned := c.conn == conn
		if owned {
			c.conn = nil
		}
		c.mu.Unlock()

		// Disconnect or Close already detached the connection and reported it.
		if !owned {
			return
		}

		_ = conn.Close()
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.emitError(err)
		}
		c.setState(Disconnected, err)

		if !c.config.AutoReconnect {
			return
		}

		conn = c.redial()
		if conn == nil {
			return
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		c.emitMessage(data)
	}
}

// redial retries until a connection is made or the client is closed.
func (c *Client) redial() *websocket.Conn {
	for {
		c.setState(Reconnecting, nil)

		select {
		case <-c.stop:
			return nil
		case <-time.After(c.config.ReconnectInterval):
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-c.stop:
				cancel()
			case <-ctx.Done():
			}
		}()

		conn, err := c.dial(ctx)
		cancel()
		if err == nil {
			return conn
		}
		if errors.Is(err, ErrClosed) || c.isClosed() {
			return nil
		}
	}
}

func closeConn(conn *websocket.Conn, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = time.Second
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(timeout))

	return conn.Close()
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return
	}
	c.state = state
	handler := c.onState
	c.mu.Unlock()

	if handler != nil {
		handler(StateEvent{State: state, URL: c.config.URL, Timestamp: time.Now(), Err: err})
	}
}

func (c *Client) emitMessage(data []byte) {
	c.mu.RLock()
	handler := c.onMessage
	c.mu.RUnlock()

	if handler != nil {
		handler(MessageEvent{Data: data, Timestamp: time.Now()})
	}
}

func (c *Client) emitError(err error) {
	c.mu.RLock()
	handler := c.onError
	c.mu.RUnlock()

	if handler != nil {
		handler(ErrorEvent{Err: err, Timestamp: time.Now()})
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
