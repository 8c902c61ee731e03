package realtime

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

// NATSRelay publishes on core NATS subjects (<prefix>.<channel>).
type NATSRelay struct {
	conn   *nats.Conn
	prefix string
}

// DialNATS connects to url and returns a relay that owns the connection.
func DialNATS(url, prefix string) (*NATSRelay, error) {
	nc, err := nats.Connect(url, nats.Name("sanity-adjacent"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewNATSRelay(nc, prefix), nil
}

func NewNATSRelay(conn *nats.Conn, prefix string) *NATSRelay {
	if prefix == "" {
		prefix = "realtime"
	}
	return &NATSRelay{conn: conn, prefix: prefix}
}

func (r *NATSRelay) subject(ch Channel) string { return r.prefix + "." + ch.String() }

func (r *NATSRelay) Publish(_ context.Context, ch Channel, ev Event, payload any) error {
	b, err := encodeMessage(ch, ev, payload)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.subject(ch), b)
}

func (r *NATSRelay) Subscribe(_ context.Context, ch Channel) (*Subscription, error) {
	if !ch.Valid() {
		return nil, ErrUnknownChannel
	}
	var ns *nats.Subscription
	sub := newSubscription(ch, func() error {
		if ns == nil {
			return nil
		}
		return ns.Unsubscribe()
	})
	ns, err := r.conn.Subscribe(r.subject(ch), func(m *nats.Msg) {
		msg, err := decodeMessage(m.Data)
		if err != nil {
			logger.Warn("nats relay: drop undecodable message", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		sub.dispatch(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", r.subject(ch), err)
	}
	// 确保订阅已到达服务器
	if err := r.conn.Flush(); err != nil {
		_ = ns.Unsubscribe()
		return nil, err
	}
	return sub, nil
}

func (r *NATSRelay) Close() error {
	if r.conn.IsClosed() {
		return nil
	}
	return r.conn.Drain()
}
