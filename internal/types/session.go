package types

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is the live shopping basket. Exactly one session is current at
// any time; the registry owns its identity and the accumulator owns its
// items, status and completion timestamp.
type Session struct {
	ID          uuid.UUID     `json:"sessionId"`
	OwnerName   string        `json:"ownerName"`
	Items       []Item        `json:"items"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Status      SessionStatus `json:"status"`
	Seq         uint64        `json:"seq"`
}

// Snapshot returns a read-only deep copy safe to hand out of the
// registry's exclusion scope.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Items = make([]Item, len(s.Items))
	copy(cp.Items, s.Items)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// Duration is the basket run time; for an active session it is measured
// against now, for a completed one against the recorded completion moment.
func (s *Session) Duration(now time.Time) time.Duration {
	if s == nil {
		return 0
	}
	if s.CompletedAt != nil {
		return s.CompletedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}
