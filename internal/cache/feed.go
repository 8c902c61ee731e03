package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

const versionKey = "feed:version"

// FeedCache caches feed pages in Redis. Keys embed a version counter, so
// Invalidate is a single INCR and stale pages simply age out with their TTL.
//
// A nil *FeedCache is valid and never hits.
type FeedCache struct {
	rdb *redis.Client
	ttl time.Duration

	hits          atomic.Int64
	misses        atomic.Int64
	invalidations atomic.Int64
}

func NewFeedCache(rdb *redis.Client, ttl time.Duration) *FeedCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &FeedCache{rdb: rdb, ttl: ttl}
}

func (c *FeedCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func pageKey(version int64, page, size int) string {
	return fmt.Sprintf("feed:v%d:%d:%d", version, page, size)
}

// Get loads a cached page into dst. A miss returns false with no error.
// The returned version is the one the lookup ran against; pass it to Set so
// a page loaded before an Invalidate is never stored under the newer version.
func (c *FeedCache) Get(ctx context.Context, page, size int, dst any) (int64, bool, error) {
	if c == nil {
		return 0, false, nil
	}
	v, err := c.version(ctx)
	if err != nil {
		return 0, false, err
	}
	data, err := c.rdb.Get(ctx, pageKey(v, page, size)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.misses.Add(1)
		return v, false, nil
	}
	c.hits.Add(1)
	return v, true, nil
}

// Set stores val under the given version. After an Invalidate the key is
// already retired, so a late write is harmless and ages out with its TTL.
func (c *FeedCache) Set(ctx context.Context, version int64, page, size int, val any) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pageKey(version, page, size), payload, c.ttl).Err()
}

// Invalidate retires every cached page.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.invalidations.Add(1)
	return c.rdb.Incr(ctx, versionKey).Err()
}

// Watch invalidates the cache whenever another replica publishes a feed-affecting
// event. The caller closes the returned subscription.
func (c *FeedCache) Watch(ctx context.Context, relay realtime.Relay) (*realtime.Subscription, error) {
	if c == nil {
		return nil, errors.New("cache: feed cache disabled")
	}
	sub, err := relay.Subscribe(ctx, realtime.Main)
	if err != nil {
		return nil, err
	}
	err = sub.BindAndRefetch(realtime.Events(), func() {
		ictx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.Invalidate(ictx); err != nil {
			logger.Warn("feed cache invalidate failed", zap.Error(err))
		}
	})
	if err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}

// Counters reports cache effectiveness since start.
func (c *FeedCache) Counters() FeedCounters {
	if c == nil {
		return FeedCounters{}
	}
	return FeedCounters{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

type FeedCounters struct {
	Hits          int64
	Misses        int64
	Invalidations int64
}
