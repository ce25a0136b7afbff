package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/catalog"
	"github.com/moneybadgers/walkthrough-backend/internal/clients/gcp"
	"github.com/moneybadgers/walkthrough-backend/internal/handlers"
	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/repos"
	"github.com/moneybadgers/walkthrough-backend/internal/services"
	"github.com/moneybadgers/walkthrough-backend/internal/session"
	"github.com/moneybadgers/walkthrough-backend/internal/sse"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

type fakeAnnotator struct {
	det *gcp.Detection
	err error
}

func (f *fakeAnnotator) Annotate(ctx context.Context, img []byte) (*gcp.Detection, error) {
	return f.det, f.err
}

func newTestRouter(t *testing.T, annotator services.Annotator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	hub := sse.NewHub(log, 16)

	lb, err := services.NewLeaderboardService(log, repos.NewMemoryLeaderboardRepo(log))
	if err != nil {
		t.Fatalf("NewLeaderboardService: %v", err)
	}
	reg := session.NewRegistry(log, hub)
	acc := session.NewAccumulator(log, reg, cat, session.DistinctCountPolicy{Target: 3}, hub, lb)

	var classifier services.ClassificationService
	if annotator != nil {
		classifier, err = services.NewClassificationService(log, annotator, cat)
		if err != nil {
			t.Fatalf("NewClassificationService: %v", err)
		}
	}
	svc, err := services.NewSessionService(log, reg, acc, cat, classifier)
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}

	return NewRouter(RouterConfig{
		ServiceName:        "walkthrough-backend-test",
		SessionHandler:     handlers.NewSessionHandler(log, svc),
		ClassifyHandler:    handlers.NewClassifyHandler(log, svc),
		EventsHandler:      handlers.NewEventsHandler(log, hub),
		LeaderboardHandler: handlers.NewLeaderboardHandler(log, lb),
		CatalogHandler:     handlers.NewCatalogHandler(cat),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) types.Session {
	t.Helper()
	var s types.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v body=%s", err, w.Body.String())
	}
	return s
}

func TestHealthcheck(t *testing.T) {
	router := newTestRouter(t, nil)
	w := doJSON(t, router, http.MethodGet, "/healthcheck", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck: code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestCatalogList(t *testing.T) {
	router := newTestRouter(t, nil)
	w := doJSON(t, router, http.MethodGet, "/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog: code=%d", w.Code)
	}
	var resp struct {
		Items []types.Item `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(resp.Items) < 4 {
		t.Fatalf("catalog items: got=%d", len(resp.Items))
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)

	// No session yet.
	if w := doJSON(t, router, http.MethodGet, "/session/current", nil); w.Code != http.StatusNotFound {
		t.Fatalf("current before create: code=%d", w.Code)
	}

	// Blank owner rejected.
	if w := doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank owner: code=%d", w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: code=%d body=%s", w.Code, w.Body.String())
	}
	created := decodeSession(t, w)
	if created.OwnerName != "Ann" || created.Status != types.SessionActive {
		t.Fatalf("created session: got=%+v", created)
	}

	cur := decodeSession(t, doJSON(t, router, http.MethodGet, "/session/current", nil))
	if cur.ID != created.ID {
		t.Fatalf("current id: want=%s got=%s", created.ID, cur.ID)
	}

	// Reset swaps in a fresh placeholder session.
	fresh := decodeSession(t, doJSON(t, router, http.MethodPost, "/session/reset", nil))
	if fresh.ID == created.ID || fresh.OwnerName != session.ResetOwnerName {
		t.Fatalf("reset session: got=%+v", fresh)
	}
}

func TestAddItemOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)
	created := decodeSession(t, doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"}))

	w := doJSON(t, router, http.MethodPost, "/session/items", gin.H{"itemId": "red-bull"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: code=%d body=%s", w.Code, w.Body.String())
	}
	var item types.Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.Name != "Red Bull" || item.Price != 2.95 {
		t.Fatalf("item: got=%+v", item)
	}

	// Unknown item.
	if w := doJSON(t, router, http.MethodPost, "/session/items", gin.H{"itemId": "no-such"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown item: code=%d", w.Code)
	}

	// Missing item id.
	if w := doJSON(t, router, http.MethodPost, "/session/items", gin.H{}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing item id: code=%d", w.Code)
	}

	// Stale session guard.
	doJSON(t, router, http.MethodPost, "/session/reset", nil)
	w = doJSON(t, router, http.MethodPost, "/session/items", gin.H{
		"itemId":    "red-bull",
		"sessionId": created.ID.String(),
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("stale session add: code=%d body=%s", w.Code, w.Body.String())
	}

	// Bogus session id.
	w = doJSON(t, router, http.MethodPost, "/session/items", gin.H{
		"itemId":    "red-bull",
		"sessionId": uuid.New().String(),
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("unknown session add: code=%d", w.Code)
	}
}

func TestLegacyAddByName(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"})

	w := doJSON(t, router, http.MethodPost, "/items", gin.H{"itemName": "Pepsi Max"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add by name: code=%d body=%s", w.Code, w.Body.String())
	}
	var item types.Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.ID != "pepsi-max" {
		t.Fatalf("item: got=%+v", item)
	}

	if w := doJSON(t, router, http.MethodPost, "/items", gin.H{"itemName": "Mystery Snack"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown name: code=%d", w.Code)
	}
}

func TestCompletionAndLeaderboardOverHTTP(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"})

	for _, id := range []string{"pepsi-max", "red-bull", "estrella-chips"} {
		if w := doJSON(t, router, http.MethodPost, "/session/items", gin.H{"itemId": id}); w.Code != http.StatusCreated {
			t.Fatalf("add %s: code=%d", id, w.Code)
		}
	}

	cur := decodeSession(t, doJSON(t, router, http.MethodGet, "/session/current", nil))
	if cur.Status != types.SessionCompleted {
		t.Fatalf("status: want=completed got=%s", cur.Status)
	}

	// Add after completion is rejected.
	if w := doJSON(t, router, http.MethodPost, "/session/items", gin.H{"itemId": "pepsi-max"}); w.Code != http.StatusConflict {
		t.Fatalf("add after completion: code=%d", w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/leaderboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("leaderboard: code=%d", w.Code)
	}
	var resp struct {
		Entries []types.LeaderboardEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].OwnerName != "Ann" {
		t.Fatalf("entries: got=%+v", resp.Entries)
	}

	// Wipe clears it.
	if w := doJSON(t, router, http.MethodDelete, "/leaderboard", nil); w.Code != http.StatusOK {
		t.Fatalf("wipe: code=%d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/leaderboard", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("entries after wipe: got=%d", len(resp.Entries))
	}
}

func TestClassifyOverHTTP(t *testing.T) {
	router := newTestRouter(t, &fakeAnnotator{det: &gcp.Detection{
		Logos: []string{"red bull"},
		Text:  "red bull energy drink",
	}})
	doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"})

	req := httptest.NewRequest(http.MethodPost, "/classify-item", bytes.NewReader([]byte{0xff, 0xd8, 0xff}))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("classify: code=%d body=%s", w.Code, w.Body.String())
	}
	var res types.ClassificationResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.Matched || res.ItemID != "red-bull" {
		t.Fatalf("result: got=%+v", res)
	}

	cur := decodeSession(t, doJSON(t, router, http.MethodGet, "/session/current", nil))
	if len(cur.Items) != 1 || cur.Items[0].ID != "red-bull" {
		t.Fatalf("session items after classify: got=%+v", cur.Items)
	}

	// Empty body rejected.
	req = httptest.NewRequest(http.MethodPost, "/classify-item", bytes.NewReader(nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty classify body: code=%d", w.Code)
	}
}

func TestClassifyWithoutClassifierReturnsDegradedResult(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"})

	req := httptest.NewRequest(http.MethodPost, "/classify-item", bytes.NewReader([]byte{0xff, 0xd8, 0xff}))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("classify without classifier: code=%d body=%s", w.Code, w.Body.String())
	}
	var res types.ClassificationResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Matched || res.Confidence != 0 {
		t.Fatalf("result: want={matched:false confidence:0} got=%+v", res)
	}

	cur := decodeSession(t, doJSON(t, router, http.MethodGet, "/session/current", nil))
	if len(cur.Items) != 0 {
		t.Fatalf("session items after degraded classify: got=%+v", cur.Items)
	}
}

func TestEventStreamDeliversOrderedEvents(t *testing.T) {
	router := newTestRouter(t, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	doJSON(t, router, http.MethodPost, "/session", gin.H{"ownerName": "Ann"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type: got=%q", ct)
	}

	for _, id := range []string{"pepsi-max", "red-bull"} {
		if w := doJSON(t, router, http.MethodPost, "/session/items", gin.H{"itemId": id}); w.Code != http.StatusCreated {
			t.Fatalf("add %s: code=%d", id, w.Code)
		}
	}

	var got []types.SessionEvent
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(got) < 2 {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		ev, err := types.DecodeSessionEvent([]byte(strings.TrimPrefix(line, "data: ")))
		if err != nil {
			t.Fatalf("decode event: %v line=%q", err, line)
		}
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("events: want=2 got=%d (%v)", len(got), scanner.Err())
	}
	if got[0].Type != types.EventItemAdded || got[0].Item == nil || got[0].Item.ID != "pepsi-max" {
		t.Fatalf("first event: got=%+v", got[0])
	}
	if got[1].Seq != got[0].Seq+1 {
		t.Fatalf("seq order: got=[%d %d]", got[0].Seq, got[1].Seq)
	}
}
