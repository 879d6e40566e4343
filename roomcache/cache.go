// Package roomcache caches the lobby's room list so that repeated reads within
// a short window are served without another room_list round trip.
package roomcache

import (
	"context"
	"time"

	"github.com/cyberinferno/gomoku-client/protocol"
)

// DefaultTTL is how long a room list stays fresh.
const DefaultTTL = 5 * time.Second

// FetchTimeout bounds a fetch shared by several callers.
const FetchTimeout = 10 * time.Second

const keyPrefix = "gomoku:rooms:"

// FetchFunc obtains the room list from the authority on a cache miss.
type FetchFunc func(ctx context.Context) ([]protocol.Room, error)

// Cache stores the room list of one authority. Implementations are safe for
// concurrent use and run at most one fetch at a time per key.
type Cache interface {
	// GetOrFetch returns the cached room list, or calls fetch and caches its
	// result on a miss.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - fetch: Called on a miss
	//
	// Returns:
	//   - The room list
	//   - An error if the backend or fetch fails
	GetOrFetch(ctx context.Context, fetch FetchFunc) ([]protocol.Room, error)

	// Store replaces the cached list, e.g. when the authority pushes one.
	Store(ctx context.Context, rooms []protocol.Room) error

	// Invalidate drops the cached list.
	Invalidate(ctx context.Context) error
}

// Key returns the cache key for the authority at serverURL.
func Key(serverURL string) string {
	return keyPrefix + serverURL
}
