package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// inFlightTTL bounds how long a reservation survives a handler that never finishes.
const inFlightTTL = 60 * time.Second

// responseStore keeps one idempotency entry per key in redis: an in-flight marker while the
// command runs, then the final response for ttl.
type responseStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// reserve claims key for a new request. False means another request holds or finished it.
func (s responseStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, inFlightTTL).Result()
}

func (s responseStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(raw, &e)
	return e, err
}

// finish replaces the in-flight marker with the final response.
func (s responseStore) finish(ctx context.Context, key string, e idempEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

// release drops the key so the same request id can be retried.
func (s responseStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
