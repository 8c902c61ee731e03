package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

const memoryBuffer = 256

// MemoryRelay is an in-process broker for single-node deployments and tests.
type MemoryRelay struct {
	mu     sync.RWMutex
	subs   map[Channel]map[*memorySub]struct{}
	closed bool
}

type memorySub struct {
	sub  *Subscription
	msgs chan Message
}

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{subs: make(map[Channel]map[*memorySub]struct{})}
}

func (r *MemoryRelay) Publish(_ context.Context, ch Channel, ev Event, payload any) error {
	msg, err := newMessage(ch, ev, payload)
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrRelayClosed
	}
	for ms := range r.subs[ch] {
		select {
		case ms.msgs <- msg:
		default:
			logger.Warn("memory relay subscriber lagging, drop event",
				zap.String("channel", ch.String()), zap.String("event", ev.String()))
		}
	}
	return nil
}

func (r *MemoryRelay) Subscribe(_ context.Context, ch Channel) (*Subscription, error) {
	if !ch.Valid() {
		return nil, ErrUnknownChannel
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRelayClosed
	}

	ms := &memorySub{msgs: make(chan Message, memoryBuffer)}
	ms.sub = newSubscription(ch, func() error {
		r.remove(ch, ms)
		return nil
	})
	if r.subs[ch] == nil {
		r.subs[ch] = make(map[*memorySub]struct{})
	}
	r.subs[ch][ms] = struct{}{}

	go func() {
		for {
			select {
			case msg := <-ms.msgs:
				ms.sub.dispatch(msg)
			case <-ms.sub.Done():
				return
			}
		}
	}()
	return ms.sub, nil
}

func (r *MemoryRelay) remove(ch Channel, ms *memorySub) {
	r.mu.Lock()
	delete(r.subs[ch], ms)
	r.mu.Unlock()
}

// Close ends every open subscription.
func (r *MemoryRelay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	var open []*memorySub
	for _, set := range r.subs {
		for ms := range set {
			open = append(open, ms)
		}
	}
	r.mu.Unlock()

	for _, ms := range open {
		_ = ms.sub.Close()
	}
	return nil
}
