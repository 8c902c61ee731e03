package realtime

import (
	"context"

	"github.com/pusher/pusher-http-go/v5"

	"github.com/d60-Lab/sanity-adjacent/config"
)

// PusherRelay triggers events on hosted Pusher Channels. Browsers subscribe to
// Pusher directly, so there is no server-side subscription.
type PusherRelay struct {
	client *pusher.Client
}

func NewPusherRelay(cfg config.PusherConfig) *PusherRelay {
	return &PusherRelay{client: &pusher.Client{
		AppID:   cfg.AppID,
		Key:     cfg.Key,
		Secret:  cfg.Secret,
		Cluster: cfg.Cluster,
		Host:    cfg.Host,
		Secure:  cfg.UseTLS,
	}}
}

// Publish blocks on the Pusher HTTP API; the client takes no context.
func (r *PusherRelay) Publish(_ context.Context, ch Channel, ev Event, payload any) error {
	msg, err := newMessage(ch, ev, payload)
	if err != nil {
		return err
	}
	return r.client.Trigger(ch.String(), ev.String(), msg.Data)
}

func (r *PusherRelay) Subscribe(context.Context, Channel) (*Subscription, error) {
	return nil, ErrSubscribeUnsupported
}

func (r *PusherRelay) Close() error { return nil }
