package sessionclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

// stream consumes the server's SSE feed and applies each event until
// the connection drops, the context ends, or the mirror needs a
// resync.
func (c *Client) stream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream status %d", resp.StatusCode)
	}

	return c.consume(resp.Body)
}

// consume parses SSE frames off r. Comment lines (heartbeats) and
// unknown fields are skipped; multi-line data fields are joined per
// the SSE wire format.
func (c *Client) consume(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []string
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" { // frame boundary
			if len(data) == 0 {
				continue
			}
			payload := strings.Join(data, "\n")
			data = data[:0]

			ev, err := types.DecodeSessionEvent([]byte(payload))
			if err != nil {
				c.log.Warn("malformed event dropped", "error", err)
				continue
			}
			if c.apply(ev) {
				return nil // caller resnapshots and reconnects
			}
			continue
		}
		if strings.HasPrefix(line, ":") { // heartbeat
			continue
		}
		if strings.HasPrefix(line, "data:") {
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// event:/id:/retry: fields carry nothing we use
	}
	return scanner.Err()
}
