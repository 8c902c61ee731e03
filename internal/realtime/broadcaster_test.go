package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRelay struct {
	mu     sync.Mutex
	events []Event
	fail   error
	block  chan struct{}
}

func (r *recordingRelay) Publish(_ context.Context, _ Channel, ev Event, _ any) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.fail
}

func (r *recordingRelay) Subscribe(context.Context, Channel) (*Subscription, error) {
	return nil, ErrSubscribeUnsupported
}

func (r *recordingRelay) Close() error { return nil }

func (r *recordingRelay) published() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestBroadcasterDeliversThroughRelay(t *testing.T) {
	relay := NewMemoryRelay()
	defer relay.Close()

	sub, err := relay.Subscribe(context.Background(), Main)
	require.NoError(t, err)
	defer sub.Close()

	var calls atomic.Int32
	require.NoError(t, sub.BindAndRefetch([]Event{AddedPost}, func() { calls.Add(1) }))

	b := NewBroadcaster(relay, 16, time.Second)
	stop := b.Start(2)
	defer stop(context.Background())

	b.Notify(Main, AddedPost, "added new post")

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, 10*time.Millisecond)
}

func TestBroadcasterSwallowsPublishErrors(t *testing.T) {
	relay := &recordingRelay{fail: errors.New("relay down")}
	b := NewBroadcaster(relay, 16, time.Second)
	stop := b.Start(1)

	assert.NotPanics(t, func() { b.Notify(Main, LikedPost, nil) })
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, []Event{LikedPost}, relay.published())
}

func TestBroadcasterRejectsUndeclaredEvent(t *testing.T) {
	relay := &recordingRelay{}
	b := NewBroadcaster(relay, 16, time.Second)
	stop := b.Start(1)

	b.Notify(Main, Event{}, nil)
	b.Notify(Channel{}, AddedPost, nil)
	require.NoError(t, stop(context.Background()))

	assert.Empty(t, relay.published())
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	relay := &recordingRelay{block: make(chan struct{})}
	b := NewBroadcaster(relay, 1, time.Second)
	stop := b.Start(1)

	b.Notify(Main, AddedPost, nil)
	// 等 worker 取走第一条并阻塞在 relay 上
	require.Eventually(t, func() bool { return b.QueueLen() == 0 }, waitFor, 5*time.Millisecond)
	b.Notify(Main, AddedComment, nil)
	b.Notify(Main, LikedPost, nil) // 队列已满，丢弃

	close(relay.block)
	require.NoError(t, stop(context.Background()))
	assert.Equal(t, []Event{AddedPost, AddedComment}, relay.published())
	assert.Equal(t, int64(1), b.Dropped())
}

func TestBroadcasterStopDrainsQueue(t *testing.T) {
	relay := &recordingRelay{}
	b := NewBroadcaster(relay, 16, time.Second)

	b.Notify(Main, AddedPost, nil)
	b.Notify(Main, UpdatedInfo, nil)
	stop := b.Start(1)
	require.NoError(t, stop(context.Background()))

	assert.ElementsMatch(t, []Event{AddedPost, UpdatedInfo}, relay.published())

	b.Notify(Main, LikedPost, nil)
	assert.Equal(t, 0, b.QueueLen())
	assert.Equal(t, int64(1), b.Dropped())
}

func TestBroadcasterStopWithoutWorkersCountsQueued(t *testing.T) {
	relay := &recordingRelay{}
	b := NewBroadcaster(relay, 16, time.Second)

	b.Notify(Main, AddedPost, nil)
	b.Notify(Main, AddedComment, nil)
	require.NoError(t, b.Stop(context.Background()))

	assert.Empty(t, relay.published())
	assert.Equal(t, 0, b.QueueLen())
	assert.Equal(t, int64(2), b.Dropped())
}

func TestBroadcasterNotifyRacingStopLosesNothing(t *testing.T) {
	const senders, perSender = 8, 200

	for round := 0; round < 20; round++ {
		relay := &recordingRelay{}
		b := NewBroadcaster(relay, senders*perSender, time.Second)
		stop := b.Start(2)

		var wg sync.WaitGroup
		for i := 0; i < senders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perSender; j++ {
					b.Notify(Main, LikedPost, nil)
				}
			}()
		}
		require.NoError(t, stop(context.Background()))
		wg.Wait()

		// 每个事件要么发布，要么计入丢弃，不会滞留在队列里
		assert.Equal(t, 0, b.QueueLen())
		assert.Equal(t, int64(senders*perSender), int64(len(relay.published()))+b.Dropped(), "round %d", round)
	}
}
