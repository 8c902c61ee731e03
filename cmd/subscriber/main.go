package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/config"
	"github.com/d60-Lab/sanity-adjacent/internal/realtime"
	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// 订阅一个频道并打印事件；EVENTS=liked_post,unliked_post 可只看部分事件
func main() {
	cfg := must(config.Load())
	if err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}
	relay := must(realtime.Open(cfg.Relay, rdb))
	defer relay.Close()

	channel := realtime.Main
	if s := os.Getenv("CHANNEL"); s != "" {
		channel = must(realtime.ParseChannel(s))
	}
	events := realtime.Events()
	if s := os.Getenv("EVENTS"); s != "" {
		names := lo.Compact(lo.Map(strings.Split(s, ","), func(n string, _ int) string { return strings.TrimSpace(n) }))
		events = lo.Map(names, func(n string, _ int) realtime.Event { return must(realtime.ParseEvent(n)) })
	}

	sub, err := relay.Subscribe(ctx, channel)
	if err != nil {
		logger.Fatal("subscribe failed", zap.String("driver", cfg.Relay.Driver), zap.Error(err))
	}
	defer sub.Close()

	for _, ev := range events {
		ev := ev
		_ = sub.Bind(ev, func(data json.RawMessage) {
			logger.Info("event",
				zap.String("channel", channel.String()),
				zap.String("event", ev.String()),
				zap.ByteString("data", data))
		})
	}
	logger.Info("subscribed",
		zap.String("channel", channel.String()),
		zap.Strings("events", lo.Map(events, func(e realtime.Event, _ int) string { return e.String() })))

	select {
	case <-ctx.Done():
	case <-sub.Done():
		logger.Warn("subscription closed by relay")
	}
}
