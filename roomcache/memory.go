package roomcache

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/cyberinferno/gomoku-client/protocol"
)

// Memory is an in-process Cache backed by go-cache. Concurrent misses share a
// single fetch through singleflight.
type Memory struct {
	key   string
	ttl   time.Duration
	cache *cache.Cache
	group singleflight.Group
}

// NewMemory creates an in-memory room cache.
//
// Parameters:
//   - serverURL: The authority whose rooms are cached
//   - ttl: Freshness window; DefaultTTL when non-positive
//
// Returns:
//   - A new *Memory
func NewMemory(serverURL string, ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		key:   Key(serverURL),
		ttl:   ttl,
		cache: cache.New(ttl, 2*ttl),
	}
}

// GetOrFetch returns the cached list or joins the single in-flight fetch. The
// fetch runs detached from any one caller, bounded by FetchTimeout, so a
// caller that gives up does not fail or hold the others.
func (m *Memory) GetOrFetch(ctx context.Context, fetch FetchFunc) ([]protocol.Room, error) {
	if rooms, ok := m.get(); ok {
		return rooms, nil
	}

	flight := m.group.DoChan(m.key, func() (any, error) {
		if rooms, ok := m.get(); ok {
			return rooms, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()

		rooms, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		m.cache.Set(m.key, protocol.CloneRooms(rooms), m.ttl)

		return rooms, nil
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return nil, fmt.Errorf("fetch rooms: %w", res.Err)
		}
		return protocol.CloneRooms(res.Val.([]protocol.Room)), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch rooms: %w", ctx.Err())
	}
}

func (m *Memory) Store(ctx context.Context, rooms []protocol.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.cache.Set(m.key, protocol.CloneRooms(rooms), m.ttl)

	return nil
}

func (m *Memory) Invalidate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.cache.Delete(m.key)

	return nil
}

func (m *Memory) get() ([]protocol.Room, bool) {
	val, found := m.cache.Get(m.key)
	if !found {
		return nil, false
	}

	rooms, ok := val.([]protocol.Room)
	if !ok {
		return nil, false
	}

	return protocol.CloneRooms(rooms), true
}
