package realtime

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/sanity-adjacent/config"
)

// Open builds the relay selected by cfg.Driver. rdb may be nil unless the driver is redis.
func Open(cfg config.RelayConfig, rdb *redis.Client) (Relay, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryRelay(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("relay driver redis: no redis client")
		}
		return NewRedisRelay(rdb, cfg.Prefix), nil
	case "nats":
		return DialNATS(cfg.NATSURL, cfg.Prefix)
	case "pusher":
		return NewPusherRelay(cfg.Pusher), nil
	default:
		return nil, fmt.Errorf("unsupported relay driver %q", cfg.Driver)
	}
}
