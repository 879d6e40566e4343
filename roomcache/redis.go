package roomcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyberinferno/gomoku-client/protocol"
)

// ErrWaitTimeout is returned when another process held the fetch lock and
// never stored a result.
var ErrWaitTimeout = errors.New("timed out waiting for room list")

const (
	lockTTL     = 10 * time.Second
	waitTimeout = 10 * time.Second
	maxBackoff  = 500 * time.Millisecond
)

const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Redis is a Cache shared between client processes through Redis. Rooms are
// stored as JSON in the authority's wire shape. A SETNX lock keeps concurrent
// misses across processes down to one fetch.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed room cache.
//
// Example:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	rooms := roomcache.NewRedis(rdb, "ws://localhost:8686", roomcache.DefaultTTL)
func NewRedis(client *redis.Client, serverURL string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{client: client, key: Key(serverURL), ttl: ttl}
}

func (r *Redis) GetOrFetch(ctx context.Context, fetch FetchFunc) ([]protocol.Room, error) {
	rooms, found, err := r.get(ctx)
	if err != nil || found {
		return rooms, err
	}

	lockKey := r.key + ":lock"
	lockValue := strconv.FormatInt(time.Now().UnixNano(), 10)

	acquired, err := r.client.SetNX(ctx, lockKey, lockValue, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire room list lock: %w", err)
	}
	if !acquired {
		return r.wait(ctx, lockKey)
	}

	defer r.client.Eval(context.Background(), releaseLockScript, []string{lockKey}, lockValue)

	rooms, err = fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	if err := r.Store(ctx, rooms); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *Redis) Store(ctx context.Context, rooms []protocol.Room) error {
	if rooms == nil {
		rooms = []protocol.Room{}
	}

	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("marshal rooms: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("store rooms: %w", err)
	}

	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("invalidate rooms: %w", err)
	}

	return nil
}

func (r *Redis) get(ctx context.Context) ([]protocol.Room, bool, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get rooms: %w", err)
	}

	var rooms []protocol.Room
	if err := json.Unmarshal(val, &rooms); err != nil {
		return nil, false, fmt.Errorf("decode cached rooms: %w", err)
	}

	return rooms, true, nil
}

// wait polls with exponential backoff until the lock holder stores a list,
// the lock disappears, or waitTimeout passes.
func (r *Redis) wait(ctx context.Context, lockKey string) ([]protocol.Room, error) {
	backoff := 10 * time.Millisecond
	deadline := time.Now().Add(waitTimeout)

	for time.Now().Before(deadline) {
		rooms, found, err := r.get(ctx)
		if err != nil || found {
			return rooms, err
		}

		exists, err := r.client.Exists(ctx, lockKey).Result()
		if err != nil {
			return nil, fmt.Errorf("check room list lock: %w", err)
		}
		if exists == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	rooms, found, err := r.get(ctx)
	if err != nil || found {
		return rooms, err
	}

	return nil, ErrWaitTimeout
}
