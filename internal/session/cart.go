package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// CompletionRecorder receives the finished session exactly once per
// session id (the recorder itself is idempotent as a second guard).
type CompletionRecorder interface {
	RecordCompletion(s *types.Session)
}

// Accumulator applies validated item-add mutations to the current
// session. It is the sole writer of a session's items, status and
// completedAt fields.
type Accumulator struct {
	log         *logger.Logger
	registry    *Registry
	catalog     *catalog.Catalog
	policy      CompletionPolicy
	broadcaster Broadcaster
	recorder    CompletionRecorder
	now         func() time.Time
}

func NewAccumulator(
	baseLog *logger.Logger,
	registry *Registry,
	cat *catalog.Catalog,
	policy CompletionPolicy,
	broadcaster Broadcaster,
	recorder CompletionRecorder,
) *Accumulator {
	return &Accumulator{
		log:         baseLog.With("component", "CartAccumulator"),
		registry:    registry,
		catalog:     cat,
		policy:      policy,
		broadcaster: broadcaster,
		recorder:    recorder,
		now:         time.Now,
	}
}

// AddItem appends the resolved catalog item to the session, bumps the
// sequence counter, evaluates the completion rule, and publishes exactly
// one ItemAdded event after the mutation is applied, so no subscriber
// can observe an isComplete flag that disagrees with a later query.
// Failed adds never partially mutate the cart and emit nothing.
func (a *Accumulator) AddItem(sessionID uuid.UUID, itemID string) (types.Item, error) {
	var item types.Item
	var completed *types.Session
	err := a.registry.Mutate(sessionID, func(s *types.Session) error {
		if s.Status != types.SessionActive {
			return types.ErrSessionCompleted
		}
		var ok bool
		item, ok = a.catalog.Get(itemID)
		if !ok {
			return types.ErrUnknownItem
		}

		s.Items = append(s.Items, item)
		s.Seq++
		if a.policy.Satisfied(s.Items) {
			now := a.now().UTC()
			s.Status = types.SessionCompleted
			s.CompletedAt = &now
			completed = s.Snapshot()
		}

		if a.broadcaster != nil {
			a.broadcaster.Publish(types.SessionEvent{
				Type:       types.EventItemAdded,
				Seq:        s.Seq,
				SessionID:  s.ID,
				Item:       &item,
				IsComplete: s.Status == types.SessionCompleted,
			})
		}
		return nil
	})
	if err != nil {
		return types.Item{}, err
	}

	// Leaderboard hand-off stays outside the mutation scope; it may hit
	// the database and the recorder is idempotent per session id.
	if completed != nil && a.recorder != nil {
		a.recorder.RecordCompletion(completed)
	}

	a.log.Debug("item added", "session_id", sessionID.String(), "item_id", item.ID, "completed", completed != nil)
	return item, nil
}

// SetClock overrides the accumulator's time source. Test hook.
func (a *Accumulator) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}
