package client

import (
	"sync"
	"sync/atomic"
)

// SubscriptionID names a subscription returned by Subscribe.
type SubscriptionID uint32

// registry holds subscriber channels keyed by subscription id. Lookups and
// inserts are safe from any goroutine; channels are only sent on and closed by
// the event loop.
type registry struct {
	subs sync.Map // SubscriptionID -> chan Update
	last atomic.Uint32
}

// add registers a new channel and returns its id. Ids increase from 1.
func (r *registry) add(buffer int) (SubscriptionID, chan Update) {
	id := SubscriptionID(r.last.Add(1))
	ch := make(chan Update, buffer)
	r.subs.Store(id, ch)

	return id, ch
}

// remove unregisters id and returns its channel, if it was registered.
func (r *registry) remove(id SubscriptionID) (chan Update, bool) {
	v, ok := r.subs.LoadAndDelete(id)
	if !ok {
		return nil, false
	}

	return v.(chan Update), true
}

// each calls f for every registered channel until f returns false.
func (r *registry) each(f func(id SubscriptionID, ch chan Update) bool) {
	r.subs.Range(func(k, v any) bool {
		return f(k.(SubscriptionID), v.(chan Update))
	})
}

// len counts registered subscribers.
func (r *registry) len() int {
	n := 0
	r.each(func(SubscriptionID, chan Update) bool {
		n++
		return true
	})

	return n
}
