package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/sse"
)

type EventsHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewEventsHandler(log *logger.Logger, hub *sse.Hub) *EventsHandler {
	return &EventsHandler{
		log: log.With("handler", "EventsHandler"),
		hub: hub,
	}
}

// GET /events
// Streams session events over SSE until the client disconnects. There
// is no replay: clients fetch the current session first, then drop any
// event at or below the snapshot's sequence number.
func (h *EventsHandler) Stream(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)
	h.hub.ServeHTTP(c.Writer, c.Request, sub)
}
