package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

const defaultMailboxSize = 16

// Subscriber is one connected observer with a private bounded mailbox.
// Its delivery is isolated: a slow or dead subscriber never stalls the
// publisher or its peers.
type Subscriber struct {
	ID     uuid.UUID
	events chan types.SessionEvent
	done   chan struct{}
}

// Events is the subscriber's receive side.
func (s *Subscriber) Events() <-chan types.SessionEvent {
	return s.events
}

// Done is closed when the hub drops the subscriber.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Hub fans session events out to every registered subscriber. There is
// no replay buffer: a subscriber connected after an event was published
// never sees it. Clients compensate with snapshot-then-stream.
type Hub struct {
	log     *logger.Logger
	mailbox int

	mu   sync.RWMutex
	subs map[*Subscriber]bool
}

func NewHub(baseLog *logger.Logger, mailboxSize int) *Hub {
	if mailboxSize <= 0 {
		mailboxSize = defaultMailboxSize
	}
	return &Hub{
		log:     baseLog.With("component", "EventBroadcaster"),
		mailbox: mailboxSize,
		subs:    make(map[*Subscriber]bool),
	}
}

// Subscribe registers a new subscriber. Non-blocking.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:     uuid.New(),
		events: make(chan types.SessionEvent, h.mailbox),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[sub] = true
	h.mu.Unlock()
	h.log.Debug("subscriber connected", "subscriber_id", sub.ID.String())
	return sub
}

// Unsubscribe removes a subscriber without blocking the publisher or
// other subscribers. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if !h.subs[sub] {
		h.mu.Unlock()
		return
	}
	delete(h.subs, sub)
	close(sub.done)
	h.mu.Unlock()
	h.log.Debug("subscriber disconnected", "subscriber_id", sub.ID.String())
}

// Publish pushes the event into every mailbox. A full mailbox drops its
// oldest unread event in favor of the newest: recency beats completeness
// for a live display, and clients re-fetch an authoritative snapshot.
func (h *Hub) Publish(ev types.SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		h.offer(sub, ev)
	}
}

func (h *Hub) offer(sub *Subscriber, ev types.SessionEvent) {
	for {
		select {
		case sub.events <- ev:
			return
		default:
		}
		select {
		case dropped := <-sub.events:
			h.log.Warn("subscriber mailbox full; dropping oldest event",
				"subscriber_id", sub.ID.String(), "dropped_seq", dropped.Seq)
		default:
		}
	}
}

// SubscriberCount reports the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP streams the subscriber's mailbox as server-sent events until
// the request context ends or the subscriber is dropped.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, sub *Subscriber) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("subscriber context done", "subscriber_id", sub.ID.String(), "err", ctx.Err())
			return
		case <-sub.done:
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-sub.events:
			raw, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("failed to marshal event", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: message\ndata: %s\n\n", raw)
			flusher.Flush()
		}
	}
}
