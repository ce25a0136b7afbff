package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// Broadcaster fans an event out to every connected subscriber. Publish
// must never block on a slow consumer.
type Broadcaster interface {
	Publish(ev types.SessionEvent)
}

// Registry owns the single current session. The swap of the current
// pointer (swapMu) is a distinct, shorter-lived exclusion scope from the
// per-item mutation lock (mutMu): a reset only needs swapMu and therefore
// pre-empts adds that have not yet re-validated the session id.
type Registry struct {
	log         *logger.Logger
	broadcaster Broadcaster
	now         func() time.Time

	swapMu  sync.RWMutex
	current *types.Session

	mutMu sync.Mutex
}

// ResetOwnerName is the placeholder owner installed by a demo teardown
// reset, mirroring the seeded demo basket.
const ResetOwnerName = "Demo User"

func NewRegistry(baseLog *logger.Logger, broadcaster Broadcaster) *Registry {
	return &Registry{
		log:         baseLog.With("component", "SessionRegistry"),
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// CreateSession atomically replaces any existing current session with a
// new active one and notifies subscribers so stale clients discard their
// state.
func (r *Registry) CreateSession(ownerName string) (uuid.UUID, error) {
	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		return uuid.Nil, types.ErrInvalidInput
	}

	next := &types.Session{
		ID:        uuid.New(),
		OwnerName: ownerName,
		Items:     []types.Item{},
		StartedAt: r.now().UTC(),
		Status:    types.SessionActive,
	}

	r.swapMu.Lock()
	prev := r.current
	r.current = next
	var resetEv types.SessionEvent
	if prev != nil {
		prev.Seq++
		resetEv = types.SessionEvent{
			Type:         types.EventSessionReset,
			Seq:          prev.Seq,
			SessionID:    prev.ID,
			NewSessionID: next.ID,
		}
	} else {
		resetEv = types.SessionEvent{
			Type:         types.EventSessionReset,
			NewSessionID: next.ID,
		}
	}
	if r.broadcaster != nil {
		r.broadcaster.Publish(resetEv)
	}
	r.swapMu.Unlock()

	r.log.Info("session created", "session_id", next.ID.String(), "owner_name", ownerName)
	return next.ID, nil
}

// ResetSession is the demo teardown: the previous session's items are
// discarded, a fresh placeholder-owned session takes its place.
func (r *Registry) ResetSession() uuid.UUID {
	id, _ := r.CreateSession(ResetOwnerName)
	return id
}

// CurrentSession returns a read-only snapshot of the current session.
func (r *Registry) CurrentSession() (*types.Session, error) {
	r.swapMu.RLock()
	defer r.swapMu.RUnlock()
	if r.current == nil {
		return nil, types.ErrNoActiveSession
	}
	return r.current.Snapshot(), nil
}

// Mutate runs fn against the current session under the single-writer
// mutation scope. The session id is re-validated inside the scope, so an
// add racing a reset fails with ErrSessionNotFound instead of landing on
// the replacement session. fn must be fast and in-memory only; events it
// publishes are ordered because mutMu serializes callers.
func (r *Registry) Mutate(sessionID uuid.UUID, fn func(s *types.Session) error) error {
	r.mutMu.Lock()
	defer r.mutMu.Unlock()

	r.swapMu.RLock()
	defer r.swapMu.RUnlock()
	cur := r.current
	if cur == nil || cur.ID != sessionID {
		return types.ErrSessionNotFound
	}
	return fn(cur)
}

// SetClock overrides the registry's time source. Test hook.
func (r *Registry) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}
