package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/sanity-adjacent/pkg/logger"
)

type publishJob struct {
	channel Channel
	event   Event
	payload any
	enqAt   time.Time
}

// Broadcaster is the fire-and-forget publisher used by the mutation layer.
// Jobs go through a bounded queue drained by a fixed worker pool; a failed or
// dropped publish is logged and counted, never retried or returned to the caller.
type Broadcaster struct {
	relay   Relay
	ch      chan publishJob
	timeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// mu 保证 Stop 之后不会再有任务入队
	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

func NewBroadcaster(relay Relay, queueSize int, timeout time.Duration) *Broadcaster {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Broadcaster{
		relay:   relay,
		ch:      make(chan publishJob, queueSize),
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Start launches the workers and returns the stop function. Stop drains what
// is already queued, bounded by its context.
func (b *Broadcaster) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	b.startOnce.Do(func() {
		for i := 0; i < workers; i++ {
			b.wg.Add(1)
			go b.loop()
		}
	})
	return b.Stop
}

func (b *Broadcaster) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.stopped = true
		close(b.stopCh)
		b.mu.Unlock()
	})
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.discardQueued()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discardQueued accounts for jobs no worker will pick up, e.g. when Stop runs
// on a broadcaster that was never started.
func (b *Broadcaster) discardQueued() {
	for {
		select {
		case job := <-b.ch:
			b.drop(job.event, "broadcaster stopped, drop queued event")
		default:
			return
		}
	}
}

func (b *Broadcaster) drop(ev Event, reason string) {
	b.dropped.Add(1)
	publishDropped.WithLabelValues(ev.String()).Inc()
	logger.Warn(reason, zap.String("event", ev.String()))
}

func (b *Broadcaster) loop() {
	defer b.wg.Done()
	for {
		select {
		case job := <-b.ch:
			b.publish(job)
		case <-b.stopCh:
			for {
				select {
				case job := <-b.ch:
					b.publish(job)
				default:
					return
				}
			}
		}
	}
}

func (b *Broadcaster) publish(job publishJob) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	if err := b.relay.Publish(ctx, job.channel, job.event, job.payload); err != nil {
		publishTotal.WithLabelValues(job.event.String(), "error").Inc()
		logger.Warn("realtime publish failed",
			zap.String("channel", job.channel.String()),
			zap.String("event", job.event.String()),
			zap.Error(err))
		return
	}
	publishTotal.WithLabelValues(job.event.String(), "ok").Inc()
	publishLatency.Observe(time.Since(job.enqAt).Seconds())
}

// Notify queues one event. Invalid channels or events are rejected here so they
// never reach the relay.
func (b *Broadcaster) Notify(ch Channel, ev Event, payload any) {
	if !ch.Valid() || !ev.Valid() {
		logger.Error("realtime notify with undeclared channel or event",
			zap.String("channel", ch.String()), zap.String("event", ev.String()))
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		b.drop(ev, "broadcaster stopped, drop event")
		return
	}
	select {
	case b.ch <- publishJob{channel: ch, event: ev, payload: payload, enqAt: time.Now()}:
	default:
		b.drop(ev, "broadcaster queue full, drop event")
	}
}

// QueueLen 返回当前队列长度（采样值）。
func (b *Broadcaster) QueueLen() int { return len(b.ch) }

// Dropped 返回累计丢弃的事件数。
func (b *Broadcaster) Dropped() int64 { return b.dropped.Load() }
