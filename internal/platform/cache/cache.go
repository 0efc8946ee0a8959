package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/logger"
	"github.com/ShivaprasadMurashillin/LexDash/internal/platform/metrics"
)

const (
	prefix = "lexdash:agg:"
	genKey = "lexdash:agg-gen"
)

// Cache stores read aggregations as JSON. Mutations call Invalidate.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Generation changes on every Invalidate.
	Generation(ctx context.Context) (int64, error)
	// Set stores v unless Invalidate ran since gen was read.
	Set(ctx context.Context, key string, v any, gen int64) error
	Invalidate(ctx context.Context) error
}

// Nop never hits. Used when REDIS_ADDR is unset and in tests.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Generation(context.Context) (int64, error)      { return 0, nil }
func (Nop) Set(context.Context, string, any, int64) error  { return nil }
func (Nop) Invalidate(context.Context) error               { return nil }

type redisCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
	m   *metrics.Metrics
}

// NewRedis connects to addr and verifies it with a ping.
func NewRedis(log *logger.Logger, m *metrics.Metrics, addr string, ttl time.Duration) (Cache, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{
		log: log.With("service", "AggregationCache"),
		rdb: rdb,
		ttl: ttl,
		m:   m,
	}, nil
}

func (c *redisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		c.m.IncCache(false)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	c.m.IncCache(true)
	return true, nil
}

func (c *redisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set writes under WATCH on the generation key, so an Invalidate landing
// between the check and the write aborts it.
func (c *redisCache) Set(ctx context.Context, key string, v any, gen int64) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, prefix+key, raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, goredis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the generation before dropping keys.
func (c *redisCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, genKey).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Remember returns the cached value under key, or computes, stores and returns it.
// A value computed across an Invalidate is returned but not stored.
// Cache errors are logged and fall through to compute.
func Remember[T any](ctx context.Context, c Cache, log *logger.Logger, key string, compute func(context.Context) (T, error)) (T, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		log.Warn("cache generation read failed", "key", key, "error", err)
		return compute(ctx)
	}
	var out T
	if ok, err := c.Get(ctx, key, &out); err != nil {
		log.Warn("cache get failed", "key", key, "error", err)
	} else if ok {
		return out, nil
	}
	out, err = compute(ctx)
	if err != nil {
		return out, err
	}
	if err := c.Set(ctx, key, out, gen); err != nil {
		log.Warn("cache set failed", "key", key, "error", err)
	}
	return out, nil
}
