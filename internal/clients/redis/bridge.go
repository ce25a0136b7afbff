package redis

import (
	"context"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/sse"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

const defaultQueueSize = 256

// Bridge relays session events to the bus from a buffered queue so the
// publisher never blocks on a Redis round-trip. Delivery to local
// subscribers normally arrives through the forwarder, which receives
// this instance's own messages back along with every other instance's.
// When Redis is down or the queue is full the event goes straight to
// the local hub instead, so local subscribers never lose it.
type Bridge struct {
	log   *logger.Logger
	bus   EventBus
	hub   *sse.Hub
	ctx   context.Context
	queue chan types.SessionEvent
}

// NewBridge wires the bus to the hub, starts the forwarder, and starts
// the outbound drain goroutine.
func NewBridge(ctx context.Context, log *logger.Logger, bus EventBus, hub *sse.Hub) (*Bridge, error) {
	if err := bus.StartForwarder(ctx, hub.Publish); err != nil {
		return nil, err
	}
	b := &Bridge{
		log:   log.With("component", "RedisBridge"),
		bus:   bus,
		hub:   hub,
		ctx:   ctx,
		queue: make(chan types.SessionEvent, defaultQueueSize),
	}
	go b.drain()
	return b, nil
}

// Publish enqueues the event for Redis without blocking. Callers may
// hold the session mutation lock, so no I/O happens here.
func (b *Bridge) Publish(ev types.SessionEvent) {
	select {
	case b.queue <- ev:
	default:
		// Queue backed up; keep local subscribers current and skip the
		// cross-instance hop for this event.
		b.log.Warn("redis publish queue full; delivering locally only", "seq", ev.Seq)
		b.hub.Publish(ev)
	}
}

func (b *Bridge) drain() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case ev := <-b.queue:
			if err := b.bus.Publish(b.ctx, ev); err != nil {
				b.log.Error("failed to publish event to redis; delivering locally only",
					"error", err, "seq", ev.Seq)
				b.hub.Publish(ev)
			}
		}
	}
}
