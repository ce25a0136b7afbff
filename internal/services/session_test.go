package services

import (
	"context"
	"testing"

	"github.com/moneybadgers/walkthrough-backend/internal/clients/gcp"
	"github.com/moneybadgers/walkthrough-backend/internal/repos"
	"github.com/moneybadgers/walkthrough-backend/internal/session"
	"github.com/moneybadgers/walkthrough-backend/internal/sse"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

func newTestStack(t *testing.T, annotator Annotator) (SessionService, LeaderboardService, *sse.Hub) {
	t.Helper()
	log := testLogger(t)
	cat := testCatalog(t)
	hub := sse.NewHub(log, 16)

	lb, err := NewLeaderboardService(log, repos.NewMemoryLeaderboardRepo(log))
	if err != nil {
		t.Fatalf("NewLeaderboardService: %v", err)
	}
	reg := session.NewRegistry(log, hub)
	acc := session.NewAccumulator(log, reg, cat, session.DistinctCountPolicy{Target: 3}, hub, lb)

	var classifier ClassificationService
	if annotator != nil {
		classifier, err = NewClassificationService(log, annotator, cat)
		if err != nil {
			t.Fatalf("NewClassificationService: %v", err)
		}
	}
	svc, err := NewSessionService(log, reg, acc, cat, classifier)
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	return svc, lb, hub
}

func TestCreateCurrentResetFlow(t *testing.T) {
	svc, _, _ := newTestStack(t, nil)

	created, err := svc.Create("Ann")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cur, err := svc.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.ID != created.ID || cur.OwnerName != "Ann" {
		t.Fatalf("current: got=%+v", cur)
	}

	fresh, err := svc.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fresh.ID == created.ID {
		t.Fatalf("reset kept the old session id")
	}
	if fresh.OwnerName != session.ResetOwnerName {
		t.Fatalf("reset owner: want=%q got=%q", session.ResetOwnerName, fresh.OwnerName)
	}
}

func TestAddItemByNameResolvesCatalogEntry(t *testing.T) {
	svc, _, _ := newTestStack(t, nil)
	if _, err := svc.Create("Ann"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	item, err := svc.AddItemByName("Red Bull")
	if err != nil {
		t.Fatalf("AddItemByName: %v", err)
	}
	if item.ID != "red-bull" {
		t.Fatalf("resolved item: got=%+v", item)
	}

	if _, err := svc.AddItemByName("Nonexistent Snack"); err != types.ErrUnknownItem {
		t.Fatalf("AddItemByName: want=ErrUnknownItem got=%v", err)
	}
}

func TestCompletedRunLandsOnLeaderboard(t *testing.T) {
	svc, lb, _ := newTestStack(t, nil)
	created, err := svc.Create("Ann")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, id := range []string{"pepsi-max", "red-bull", "estrella-chips"} {
		if _, err := svc.AddItem(created.ID, id); err != nil {
			t.Fatalf("AddItem(%s): %v", id, err)
		}
	}

	top, err := lb.TopEntries(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopEntries: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("leaderboard entries: want=1 got=%d", len(top))
	}
	if top[0].OwnerName != "Ann" || top[0].SessionID != created.ID {
		t.Fatalf("entry: got=%+v", top[0])
	}
}

func TestClassifyAndAddAppendsMatchedItem(t *testing.T) {
	svc, _, _ := newTestStack(t, &fakeAnnotator{det: &gcp.Detection{
		Logos: []string{"red bull"},
		Text:  "red bull energy drink",
	}})
	created, err := svc.Create("Ann")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := svc.ClassifyAndAdd(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ClassifyAndAdd: %v", err)
	}
	if !res.Matched || res.ItemID != "red-bull" {
		t.Fatalf("classification: got=%+v", res)
	}

	cur, _ := svc.Current()
	if cur.ID != created.ID || len(cur.Items) != 1 || cur.Items[0].ID != "red-bull" {
		t.Fatalf("session after classify: got=%+v", cur)
	}
}

func TestClassifyAndAddNonMatchLeavesSessionAlone(t *testing.T) {
	svc, _, _ := newTestStack(t, &fakeAnnotator{det: &gcp.Detection{
		Labels: []string{"bicycle", "wheel", "road"},
	}})
	if _, err := svc.Create("Ann"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := svc.ClassifyAndAdd(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ClassifyAndAdd: %v", err)
	}
	if res.Matched {
		t.Fatalf("matched: want=false got=%+v", res)
	}
	cur, _ := svc.Current()
	if len(cur.Items) != 0 {
		t.Fatalf("non-match mutated session: items=%d", len(cur.Items))
	}
}

func TestClassifyAndAddWithoutClassifierDegrades(t *testing.T) {
	svc, _, _ := newTestStack(t, nil)
	if _, err := svc.Create("Ann"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res, err := svc.ClassifyAndAdd(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ClassifyAndAdd: %v", err)
	}
	if res == nil || res.Matched || res.Confidence != 0 {
		t.Fatalf("degraded result: want={matched:false confidence:0} got=%+v", res)
	}
	cur, _ := svc.Current()
	if len(cur.Items) != 0 {
		t.Fatalf("degraded classify mutated session: items=%d", len(cur.Items))
	}
}

func TestClassifyAndAddWithoutSessionStillReturnsResult(t *testing.T) {
	svc, _, _ := newTestStack(t, &fakeAnnotator{det: &gcp.Detection{
		Logos: []string{"pepsi"},
		Text:  "pepsi max",
	}})

	res, err := svc.ClassifyAndAdd(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("ClassifyAndAdd: %v", err)
	}
	if !res.Matched || res.ItemID != "pepsi-max" {
		t.Fatalf("classification: got=%+v", res)
	}
}
