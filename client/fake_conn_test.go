package client

import (
	"context"
	"sync"

	"github.com/cyberinferno/gomoku-client/wsclient"
)

// fakeConn is a Conn driven by the test: it records outbound frames and lets
// the test push inbound frames and state changes.
type fakeConn struct {
	mu      sync.Mutex
	sent    []string
	onState wsclient.StateHandler
	onMsg   wsclient.MessageHandler
}

func (f *fakeConn) Connect(context.Context) error { return nil }
func (f *fakeConn) Disconnect() error             { return nil }
func (f *fakeConn) Close() error                  { return nil }

func (f *fakeConn) SendText(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeConn) OnConnectionState(h wsclient.StateHandler) { f.onState = h }
func (f *fakeConn) OnMessage(h wsclient.MessageHandler)       { f.onMsg = h }
func (f *fakeConn) OnError(wsclient.ErrorHandler)             {}

func (f *fakeConn) receive(frame string) {
	f.onMsg(wsclient.MessageEvent{Data: []byte(frame)})
}

func (f *fakeConn) setState(state wsclient.State) {
	f.onState(wsclient.StateEvent{State: state})
}

func (f *fakeConn) count(frame string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sent {
		if s == frame {
			n++
		}
	}
	return n
}
