package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("APP_RELAY_DRIVER", "nats")
	t.Setenv("APP_DATABASE_DRIVER", "sqlite")
	t.Setenv("APP_CACHE_FEED_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nats", cfg.Relay.Driver)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Cache.FeedTTL)
	assert.Equal(t, 4, cfg.Relay.Workers)
	assert.False(t, cfg.Auth.DefaultCanPost)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database: DatabaseConfig{Driver: "sqlite"},
		Relay:    RelayConfig{Driver: "memory"},
		JWT:      JWTConfig{Secret: "s"},
	}
	require.NoError(t, valid.Validate())

	c := valid
	c.Relay.Driver = "redis"
	assert.Error(t, c.Validate())
	c.Redis.Addr = "localhost:6379"
	assert.NoError(t, c.Validate())

	c = valid
	c.Relay.Driver = "pusher"
	assert.Error(t, c.Validate())
	c.Relay.Pusher = PusherConfig{AppID: "1", Key: "k", Secret: "s"}
	assert.NoError(t, c.Validate())

	c = valid
	c.Relay.Driver = "kafka"
	assert.Error(t, c.Validate())

	c = valid
	c.Database.Driver = "mysql"
	assert.Error(t, c.Validate())

	c = valid
	c.JWT.Secret = ""
	assert.Error(t, c.Validate())
}
