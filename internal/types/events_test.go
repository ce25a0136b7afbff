package types

import (
	"testing"

	"github.com/google/uuid"
)

func TestDecodeSessionEventTaggedItemAdded(t *testing.T) {
	sid := uuid.New()
	raw := []byte(`{"event":"ItemAdded","seq":4,"sessionId":"` + sid.String() + `","item":{"id":"pepsi-max","name":"Pepsi Max","price":1.99},"isComplete":true}`)
	ev, err := DecodeSessionEvent(raw)
	if err != nil {
		t.Fatalf("DecodeSessionEvent: %v", err)
	}
	if ev.Type != EventItemAdded {
		t.Fatalf("event type: want=%q got=%q", EventItemAdded, ev.Type)
	}
	if ev.Seq != 4 {
		t.Fatalf("seq: want=4 got=%d", ev.Seq)
	}
	if ev.SessionID != sid {
		t.Fatalf("session id: want=%s got=%s", sid, ev.SessionID)
	}
	if ev.Item == nil || ev.Item.ID != "pepsi-max" {
		t.Fatalf("item: got=%+v", ev.Item)
	}
	if !ev.IsComplete {
		t.Fatalf("isComplete: want=true")
	}
}

func TestDecodeSessionEventTaggedReset(t *testing.T) {
	next := uuid.New()
	raw := []byte(`{"event":"SessionReset","newSessionId":"` + next.String() + `"}`)
	ev, err := DecodeSessionEvent(raw)
	if err != nil {
		t.Fatalf("DecodeSessionEvent: %v", err)
	}
	if ev.Type != EventSessionReset {
		t.Fatalf("event type: want=%q got=%q", EventSessionReset, ev.Type)
	}
	if ev.NewSessionID != next {
		t.Fatalf("new session id: want=%s got=%s", next, ev.NewSessionID)
	}
}

func TestDecodeSessionEventUntaggedItemWithFlag(t *testing.T) {
	raw := []byte(`{"item":{"id":"red-bull","name":"Red Bull","price":2.95},"isComplete":true}`)
	ev, err := DecodeSessionEvent(raw)
	if err != nil {
		t.Fatalf("DecodeSessionEvent: %v", err)
	}
	if ev.Type != EventItemAdded {
		t.Fatalf("event type: want=%q got=%q", EventItemAdded, ev.Type)
	}
	if ev.Item == nil || ev.Item.Name != "Red Bull" {
		t.Fatalf("item: got=%+v", ev.Item)
	}
	if !ev.IsComplete {
		t.Fatalf("isComplete: want=true")
	}
}

func TestDecodeSessionEventLegacyBareItem(t *testing.T) {
	raw := []byte(`{"id":"estrella-chips","name":"Estrella Maapähkinä Rinkula","price":2.99}`)
	ev, err := DecodeSessionEvent(raw)
	if err != nil {
		t.Fatalf("DecodeSessionEvent: %v", err)
	}
	if ev.Type != EventItemAdded {
		t.Fatalf("event type: want=%q got=%q", EventItemAdded, ev.Type)
	}
	if ev.IsComplete {
		t.Fatalf("legacy payload must decode as isComplete=false")
	}
	if ev.Seq != 0 {
		t.Fatalf("legacy payload carries no seq, got=%d", ev.Seq)
	}
	if ev.Item == nil || ev.Item.Price != 2.99 {
		t.Fatalf("item: got=%+v", ev.Item)
	}
}

func TestDecodeSessionEventRejectsGarbage(t *testing.T) {
	for _, raw := range []string{`{"weird":true}`, `not json`, `{"event":"Nonsense"}`, `{"event":"ItemAdded"}`} {
		if _, err := DecodeSessionEvent([]byte(raw)); err == nil {
			t.Fatalf("DecodeSessionEvent(%q): expected error", raw)
		}
	}
}
