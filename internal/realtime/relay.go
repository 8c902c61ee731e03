package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var (
	ErrRelayClosed          = errors.New("realtime: relay closed")
	ErrSubscribeUnsupported = errors.New("realtime: relay does not support server-side subscriptions")
)

// Relay distributes named events on a channel to every current subscriber.
type Relay interface {
	// Publish hands one event to the relay. Payload is carried verbatim as JSON.
	Publish(ctx context.Context, ch Channel, ev Event, payload any) error
	// Subscribe opens an independent subscription on ch.
	Subscribe(ctx context.Context, ch Channel) (*Subscription, error)
	Close() error
}

// Handler receives the raw payload of one event.
type Handler func(data json.RawMessage)

// Subscription is a handle bound to one channel. Handlers run sequentially on
// the subscription's delivery goroutine in publish order.
type Subscription struct {
	channel Channel

	mu       sync.RWMutex
	handlers map[Event][]Handler

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	closer    func() error
}

func newSubscription(ch Channel, closer func() error) *Subscription {
	return &Subscription{
		channel:  ch,
		handlers: make(map[Event][]Handler),
		done:     make(chan struct{}),
		closer:   closer,
	}
}

func (s *Subscription) Channel() Channel { return s.channel }

// Bind registers h for ev. Binds for different events are independent.
func (s *Subscription) Bind(ev Event, h Handler) error {
	if !ev.Valid() {
		return ErrUnknownEvent
	}
	if h == nil {
		return errors.New("realtime: nil handler")
	}
	s.mu.Lock()
	s.handlers[ev] = append(s.handlers[ev], h)
	s.mu.Unlock()
	return nil
}

// BindAndRefetch runs refetch whenever any of evs arrives. The payload is ignored:
// callers only learn that something changed.
func (s *Subscription) BindAndRefetch(evs []Event, refetch func()) error {
	if refetch == nil {
		return errors.New("realtime: nil refetch")
	}
	for _, ev := range evs {
		if !ev.Valid() {
			return ErrUnknownEvent
		}
	}
	for _, ev := range evs {
		if err := s.Bind(ev, func(json.RawMessage) { refetch() }); err != nil {
			return err
		}
	}
	return nil
}

// Done is closed once the subscription stops delivering.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close stops delivery and releases the underlying relay subscription. Safe to call twice.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			s.closeErr = s.closer()
		}
	})
	return s.closeErr
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Subscription) dispatch(msg Message) {
	if msg.Channel != s.channel || s.closed() {
		return
	}
	s.mu.RLock()
	hs := make([]Handler, len(s.handlers[msg.Event]))
	copy(hs, s.handlers[msg.Event])
	s.mu.RUnlock()

	for _, h := range hs {
		h(msg.Data)
	}
}
