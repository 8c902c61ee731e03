package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

// RedisRelay fans events out through Redis PUBLISH/SUBSCRIBE so every API
// replica and gateway sees every event.
type RedisRelay struct {
	client *redis.Client
	prefix string
}

func NewRedisRelay(client *redis.Client, prefix string) *RedisRelay {
	if prefix == "" {
		prefix = "realtime"
	}
	return &RedisRelay{client: client, prefix: prefix}
}

func (r *RedisRelay) key(ch Channel) string { return fmt.Sprintf("%s:%s", r.prefix, ch) }

func (r *RedisRelay) Publish(ctx context.Context, ch Channel, ev Event, payload any) error {
	b, err := encodeMessage(ch, ev, payload)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.key(ch), b).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context, ch Channel) (*Subscription, error) {
	if !ch.Valid() {
		return nil, ErrUnknownChannel
	}
	ps := r.client.Subscribe(ctx, r.key(ch))
	// 等待订阅确认，避免确认前发布的事件丢失
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", r.key(ch), err)
	}

	sub := newSubscription(ch, ps.Close)
	msgs := ps.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case m, ok := <-msgs:
				if !ok {
					return
				}
				msg, err := decodeMessage([]byte(m.Payload))
				if err != nil {
					logger.Warn("redis relay: drop undecodable message", zap.String("channel", m.Channel), zap.Error(err))
					continue
				}
				sub.dispatch(msg)
			case <-sub.Done():
				return
			}
		}
	}()
	return sub, nil
}

// Close is a no-op: the redis client is owned by the caller.
func (r *RedisRelay) Close() error { return nil }
