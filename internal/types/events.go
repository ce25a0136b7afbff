package types

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type SessionEventType string

const (
	EventItemAdded    SessionEventType = "ItemAdded"
	EventSessionReset SessionEventType = "SessionReset"
)

// SessionEvent is the single tagged variant broadcast on every mutation.
// Seq is the per-session sequence number: strictly increasing, no gaps.
type SessionEvent struct {
	Type         SessionEventType `json:"event"`
	Seq          uint64           `json:"seq,omitempty"`
	SessionID    uuid.UUID        `json:"sessionId,omitempty"`
	Item         *Item            `json:"item,omitempty"`
	IsComplete   bool             `json:"isComplete,omitempty"`
	NewSessionID uuid.UUID        `json:"newSessionId,omitempty"`
}

// DecodeSessionEvent parses an event payload off the wire. Three shapes
// exist: the tagged envelope this server emits, the intermediate
// {item,isComplete} document, and the legacy bare-item document (treated
// as ItemAdded with isComplete=false). Anything else is an error the
// caller should log and drop without tearing down the stream.
func DecodeSessionEvent(raw []byte) (SessionEvent, error) {
	var env SessionEvent
	if err := json.Unmarshal(raw, &env); err == nil && env.Type != "" {
		switch env.Type {
		case EventItemAdded:
			if env.Item == nil {
				return SessionEvent{}, fmt.Errorf("ItemAdded event without item")
			}
			return env, nil
		case EventSessionReset:
			return env, nil
		default:
			return SessionEvent{}, fmt.Errorf("unknown event type %q", env.Type)
		}
	}

	var untagged struct {
		Item       *Item `json:"item"`
		IsComplete bool  `json:"isComplete"`
	}
	if err := json.Unmarshal(raw, &untagged); err == nil && untagged.Item != nil && untagged.Item.ID != "" {
		return SessionEvent{
			Type:       EventItemAdded,
			Item:       untagged.Item,
			IsComplete: untagged.IsComplete,
		}, nil
	}

	var bare Item
	if err := json.Unmarshal(raw, &bare); err != nil {
		return SessionEvent{}, fmt.Errorf("decode event: %w", err)
	}
	if bare.ID == "" || bare.Name == "" {
		return SessionEvent{}, fmt.Errorf("unrecognized event payload")
	}
	return SessionEvent{
		Type: EventItemAdded,
		Item: &bare,
	}, nil
}
