package sessionclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// State is the observer's view of the basket lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Client mirrors the server's current session on the observer side. It
// fetches an authoritative snapshot, then applies the event stream on
// top of it; any gap in sequence numbers forces a fresh snapshot.
type Client struct {
	log     *logger.Logger
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu      sync.RWMutex
	state   State
	session *types.Session
	catalog []types.Item
}

func NewClient(baseLog *logger.Logger, baseURL string) (*Client, error) {
	if baseLog == nil {
		return nil, fmt.Errorf("logger required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &Client{
		log:     baseLog.With("component", "SessionClient"),
		baseURL: baseURL,
		http:    &http.Client{},
		now:     time.Now,
		state:   StateIdle,
	}, nil
}

// Run keeps the mirror alive until the context ends: snapshot, stream,
// and on any stream failure or detected gap, snapshot again.
func (c *Client) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := c.refresh(ctx); err != nil {
			c.log.Warn("snapshot fetch failed", "error", err)
		}

		err := c.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			c.log.Warn("event stream ended", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 10*time.Second {
			backoff *= 2
		}
	}
}

// refresh replaces the mirrored session with the server's snapshot.
func (c *Client) refresh(ctx context.Context) error {
	if err := c.refreshCatalog(ctx); err != nil {
		c.log.Warn("catalog fetch failed", "error", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session/current", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.mu.Lock()
		c.state = StateIdle
		c.session = nil
		c.mu.Unlock()
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("snapshot status %d", resp.StatusCode)
	}

	var sess types.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	c.mu.Lock()
	c.session = &sess
	if sess.Status == types.SessionCompleted {
		c.state = StateCompleted
	} else {
		c.state = StateActive
	}
	c.mu.Unlock()
	c.log.Debug("snapshot applied", "session_id", sess.ID.String(), "seq", sess.Seq)
	return nil
}

// refreshCatalog keeps a local copy of the product list for display.
func (c *Client) refreshCatalog(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/catalog", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog status %d", resp.StatusCode)
	}
	var doc struct {
		Items []types.Item `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	c.mu.Lock()
	c.catalog = doc.Items
	c.mu.Unlock()
	return nil
}

// apply folds one event into the mirror. It reports whether the mirror
// went stale and needs a fresh snapshot.
func (c *Client) apply(ev types.SessionEvent) (resync bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case types.EventSessionReset:
		// A new session replaced the one we mirror. Discard the cart and
		// drop to Idle; the next snapshot re-enters Active.
		c.session = nil
		c.state = StateIdle
		return true

	case types.EventItemAdded:
		if c.session == nil {
			c.log.Warn("item event with no mirrored session; resyncing")
			return true
		}
		if ev.SessionID != uuid.Nil && ev.SessionID != c.session.ID {
			c.log.Warn("item event for foreign session dropped",
				"event_session", ev.SessionID.String())
			return true
		}
		if ev.Item == nil {
			c.log.Warn("item event without item payload dropped")
			return false
		}
		// Legacy producers send no sequence number; those events can
		// only be applied in arrival order.
		if ev.Seq != 0 {
			if ev.Seq <= c.session.Seq {
				return false // already reflected in the snapshot
			}
			if ev.Seq > c.session.Seq+1 {
				c.log.Warn("sequence gap detected",
					"have", c.session.Seq, "got", ev.Seq)
				return true
			}
			c.session.Seq = ev.Seq
		} else {
			c.session.Seq++
		}

		c.session.Items = append(c.session.Items, *ev.Item)
		if ev.IsComplete {
			now := c.now().UTC()
			c.session.Status = types.SessionCompleted
			c.session.CompletedAt = &now
			c.state = StateCompleted
		}
		return false

	default:
		c.log.Warn("unknown event type dropped", "type", string(ev.Type))
		return false
	}
}

// State returns the observer's lifecycle state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Session returns a copy of the mirrored session, or nil when idle.
func (c *Client) Session() *types.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.Snapshot()
}

// Catalog returns the last fetched product list.
func (c *Client) Catalog() []types.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Item, len(c.catalog))
	copy(out, c.catalog)
	return out
}

// Total is the mirrored basket's running price total.
func (c *Client) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return 0
	}
	var sum float64
	for _, it := range c.session.Items {
		sum += it.Price
	}
	return sum
}

// Elapsed is the running basket timer: zero when idle, frozen at the
// completion moment once the run finishes.
func (c *Client) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return 0
	}
	return c.session.Duration(c.now())
}

// SetClock overrides the client's time source. Test hook.
func (c *Client) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}
