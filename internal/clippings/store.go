package clippings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mapdesk/geoquery/internal/core/model"
	"github.com/mapdesk/geoquery/internal/core/observability"
)

// loadedKey is the Redis hash holding the currently loaded clippings,
// one field per clipping id.
const loadedKey = "geoquery:loaded_clippings"

type StoreOption func(*redis.Options)

func WithPoolSize(n int) StoreOption {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) StoreOption {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) StoreOption {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) StoreOption {
	return func(o *redis.Options) { o.WriteTimeout = d }
}

// Store keeps the loaded-clippings set in Redis so the workspace state
// survives gateway restarts.
type Store struct {
	rdb *redis.Client
}

func NewStore(ctx context.Context, addr string, opts ...StoreOption) (*Store, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     16,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	observability.ObserveStoreOp("ping", err, time.Since(start).Seconds())
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// MarkLoaded records one clipping as loaded.
func (s *Store) MarkLoaded(ctx context.Context, clip model.Clipping) error {
	raw, err := json.Marshal(clip)
	if err != nil {
		return fmt.Errorf("encode clipping %q: %w", clip.ID, err)
	}
	start := time.Now()
	err = s.rdb.HSet(ctx, loadedKey, clip.ID, raw).Err()
	observability.ObserveStoreOp("hset", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis HSET %q: %w", clip.ID, err)
	}
	return nil
}

// MarkUnloaded removes one clipping from the loaded set. Unloading a
// clipping that was never loaded is not an error.
func (s *Store) MarkUnloaded(ctx context.Context, clippingID string) error {
	start := time.Now()
	err := s.rdb.HDel(ctx, loadedKey, clippingID).Err()
	observability.ObserveStoreOp("hdel", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis HDEL %q: %w", clippingID, err)
	}
	return nil
}

// Loaded returns every clipping currently marked as loaded, keyed by id.
func (s *Store) Loaded(ctx context.Context) (map[string]model.Clipping, error) {
	start := time.Now()
	raw, err := s.rdb.HGetAll(ctx, loadedKey).Result()
	observability.ObserveStoreOp("hgetall", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL loaded clippings: %w", err)
	}

	out := make(map[string]model.Clipping, len(raw))
	for id, v := range raw {
		var clip model.Clipping
		if err := json.Unmarshal([]byte(v), &clip); err != nil {
			return nil, fmt.Errorf("decode loaded clipping %q: %w", id, err)
		}
		out[id] = clip
	}
	return out, nil
}

// IsLoaded reports whether one clipping is in the loaded set.
func (s *Store) IsLoaded(ctx context.Context, clippingID string) (bool, error) {
	start := time.Now()
	ok, err := s.rdb.HExists(ctx, loadedKey, clippingID).Result()
	observability.ObserveStoreOp("hexists", err, time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("redis HEXISTS %q: %w", clippingID, err)
	}
	return ok, nil
}

func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
