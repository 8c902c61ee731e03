package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
)

type page struct {
	IDs []string `json:"ids"`
}

func newTestCache(t *testing.T) *FeedCache {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFeedCache(rdb, time.Minute)
}

func TestFeedCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	var got page
	v, hit, err := c.Get(ctx, 1, 10, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, v, 1, 10, page{IDs: []string{"a", "b"}}))
	_, hit, err = c.Get(ctx, 1, 10, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got.IDs)

	// 其他分页互不影响
	_, hit, err = c.Get(ctx, 2, 10, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Invalidate(ctx))
	_, hit, err = c.Get(ctx, 1, 10, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, FeedCounters{Hits: 1, Misses: 3, Invalidations: 1}, c.Counters())
}

func TestFeedCacheLateSetAfterInvalidateIsNotServed(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	// 读者未命中后去查库，期间写者发帖并失效缓存
	v, hit, err := c.Get(ctx, 1, 10, &page{})
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, v, 1, 10, page{IDs: []string{}}))

	var got page
	v2, hit, err := c.Get(ctx, 1, 10, &got)
	require.NoError(t, err)
	assert.False(t, hit, "page loaded before the invalidation must not be served")
	assert.Equal(t, v+1, v2)

	require.NoError(t, c.Set(ctx, v2, 1, 10, page{IDs: []string{"fresh"}}))
	_, hit, err = c.Get(ctx, 1, 10, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"fresh"}, got.IDs)
}

func TestNilFeedCache(t *testing.T) {
	var c *FeedCache
	ctx := context.Background()

	_, hit, err := c.Get(ctx, 1, 10, &page{})
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Set(ctx, 0, 1, 10, page{}))
	assert.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, FeedCounters{}, c.Counters())
	assert.Nil(t, NewFeedCache(nil, time.Second))
}

func TestFeedCacheWatchInvalidatesOnEvent(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	relay := realtime.NewMemoryRelay()
	defer relay.Close()

	sub, err := c.Watch(ctx, relay)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, c.Set(ctx, 0, 1, 10, page{IDs: []string{"a"}}))
	require.NoError(t, relay.Publish(ctx, realtime.Main, realtime.LikedPost, "liked post"))

	assert.Eventually(t, func() bool {
		_, hit, err := c.Get(ctx, 1, 10, &page{})
		return err == nil && !hit
	}, 2*time.Second, 10*time.Millisecond)
}
