package events

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Forwarder hands events to a slow publisher (a network relay) from its own
// goroutine. Publish only enqueues, so callers holding a room lock never
// wait on relay I/O. A single worker keeps events in publish order; when the
// queue is full the event is dropped and counted.
type Forwarder struct {
	next    Publisher
	queue   chan Event
	log     *zap.Logger
	dropped atomic.Int64

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewForwarder(next Publisher, size int, log *zap.Logger) *Forwarder {
	if size <= 0 {
		size = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Forwarder{
		next:  next,
		queue: make(chan Event, size),
		log:   log,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start runs the worker until Stop.
func (f *Forwarder) Start() {
	go f.run()
}

func (f *Forwarder) Publish(_ context.Context, evt Event) {
	select {
	case f.queue <- evt:
	default:
		f.dropped.Add(1)
		f.log.Warn("relay_queue_full",
			zap.String("room_id", evt.RoomID.String()),
			zap.String("event_type", string(evt.Type)))
	}
}

// Dropped reports how many events were discarded on a full queue.
func (f *Forwarder) Dropped() int64 {
	return f.dropped.Load()
}

// Stop flushes what is already queued and waits for the worker.
func (f *Forwarder) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
	<-f.done
}

func (f *Forwarder) run() {
	defer close(f.done)
	ctx := context.Background()
	for {
		select {
		case evt := <-f.queue:
			f.next.Publish(ctx, evt)
		case <-f.stop:
			for {
				select {
				case evt := <-f.queue:
					f.next.Publish(ctx, evt)
				default:
					return
				}
			}
		}
	}
}
