package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Continuity snapshot keys. Each holds one JSON blob: the last full copy of a
// collection that a process successfully loaded or wrote. The snapshot is a
// fallback for startup when the primary store is unreachable, not a cache in
// the hot path.
const (
	SnapshotItemsKey     = "auction:snapshot:items"
	SnapshotAttendeesKey = "auction:snapshot:attendees"
)

// ErrNoSnapshot is returned by Load when the key has never been written.
var ErrNoSnapshot = errors.New("snapshot not found")

// SnapshotStore persists whole-collection JSON blobs in Redis.
type SnapshotStore struct {
	client *RedisClient
}

// NewSnapshotStore returns a SnapshotStore over the given client.
func NewSnapshotStore(client *RedisClient) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// Save marshals v and writes it under key. Snapshots carry no TTL; a stale
// snapshot is still more useful at startup than an empty one.
func (s *SnapshotStore) Save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("snapshot marshal %s: %w", key, err)
	}
	if err := s.client.Client().Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("snapshot set %s: %w", key, err)
	}
	return nil
}

// Load reads the blob under key into dest. Returns ErrNoSnapshot when the
// key is absent.
func (s *SnapshotStore) Load(ctx context.Context, key string, dest any) error {
	payload, err := s.client.Client().Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, key)
	}
	if err != nil {
		return fmt.Errorf("snapshot get %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("snapshot unmarshal %s: %w", key, err)
	}
	return nil
}
