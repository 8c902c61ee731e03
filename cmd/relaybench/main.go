package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/sanity-adjacent/config"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

type sample struct {
	Seq  int   `json:"seq"`
	Sent int64 `json:"sent"`
}

type queue interface{ QueueLen() int }

// sampleQueue 定期采样队列长度；返回的函数停止采样并返回观测到的最大值。
func sampleQueue(q queue, every time.Duration) func() int {
	maxQ := 0
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := q.QueueLen(); n > maxQ {
					maxQ = n
				}
			case <-quit:
				return
			}
		}
	}()
	return func() int {
		close(quit)
		<-done
		return maxQ
	}
}

// 通过配置的 relay 测量 发布 -> 订阅回调 的延迟，以及 Broadcaster 的排队与丢弃情况
func main() {
	cfg := must(config.Load())

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	relay := must(realtime.Open(cfg.Relay, rdb))
	defer relay.Close()

	N := envInt("N", 10000)
	SUBS := envInt("SUBS", 4)
	WORKERS := envInt("WORKERS", cfg.Relay.Workers)

	ctx := context.Background()

	// 每个订阅者独立记录延迟
	var mu sync.Mutex
	lat := make([]time.Duration, 0, N*SUBS)
	var received sync.WaitGroup
	received.Add(N * SUBS)
	for i := 0; i < SUBS; i++ {
		sub, err := relay.Subscribe(ctx, realtime.Main)
		if errors.Is(err, realtime.ErrSubscribeUnsupported) {
			fmt.Fprintf(os.Stderr, "relaybench: driver %q has no server-side subscription, use memory, redis or nats\n", cfg.Relay.Driver)
			_ = relay.Close()
			os.Exit(2)
		}
		sub = must(sub, err)
		defer sub.Close()
		_ = sub.Bind(realtime.LikedPost, func(data json.RawMessage) {
			var p sample
			if json.Unmarshal(data, &p) != nil {
				return
			}
			d := time.Since(time.Unix(0, p.Sent))
			mu.Lock()
			lat = append(lat, d)
			mu.Unlock()
			received.Done()
		})
	}

	bc := realtime.NewBroadcaster(relay, N, cfg.Relay.PublishTimeout)
	stop := bc.Start(WORKERS)

	stopSampling := sampleQueue(bc, 50*time.Millisecond)

	t0 := time.Now()
	for i := 0; i < N; i++ {
		bc.Notify(realtime.Main, realtime.LikedPost, sample{Seq: i, Sent: time.Now().UnixNano()})
	}
	enqDur := time.Since(t0)

	done := make(chan struct{})
	go func() {
		received.Wait()
		close(done)
	}()
	timedOut := false
	select {
	case <-done:
	case <-time.After(time.Minute):
		timedOut = true
	}
	total := time.Since(t0)
	maxQ := stopSampling()
	_ = stop(context.Background())

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	mu.Lock()
	got := len(lat)
	samples := append([]time.Duration(nil), lat...)
	mu.Unlock()

	fmt.Printf("driver=%s N=%d SUBS=%d WORKERS=%d\n", cfg.Relay.Driver, N, SUBS, WORKERS)
	fmt.Printf("Enqueue total: %v, per op: %v, maxQueue=%d\n", enqDur, enqDur/time.Duration(N), maxQ)
	fmt.Printf("Delivered %d/%d in %v (timeout=%v), dropped=%d\n", got, N*SUBS, total, timedOut, bc.Dropped())
	fmt.Printf("Publish->callback latency p50=%v p95=%v p99=%v\n", pct(samples, 0.50), pct(samples, 0.95), pct(samples, 0.99))
}
