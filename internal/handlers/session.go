package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/services"
	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

type SessionHandler struct {
	log            *logger.Logger
	sessionService services.SessionService
}

func NewSessionHandler(log *logger.Logger, svc services.SessionService) *SessionHandler {
	return &SessionHandler{
		log:            log.With("handler", "SessionHandler"),
		sessionService: svc,
	}
}

type createSessionRequest struct {
	OwnerName string `json:"ownerName"`
}

type addItemRequest struct {
	ItemID string `json:"itemId"`
	// Optional guard: when set, the add fails if this session is no
	// longer current instead of landing on its replacement.
	SessionID string `json:"sessionId,omitempty"`
}

type addItemByNameRequest struct {
	ItemName string `json:"itemName"`
}

// POST /session
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	sess, err := h.sessionService.Create(req.OwnerName)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GET /session/current
func (h *SessionHandler) Current(c *gin.Context) {
	sess, err := h.sessionService.Current()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, sess)
}

// POST /session/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	sess, err := h.sessionService.Reset()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, sess)
}

// POST /session/items
func (h *SessionHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if req.ItemID == "" {
		RespondDomainError(c, types.ErrInvalidInput)
		return
	}

	var sessionID uuid.UUID
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			RespondDomainError(c, types.ErrInvalidInput)
			return
		}
		sessionID = id
	} else {
		cur, err := h.sessionService.Current()
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		sessionID = cur.ID
	}

	item, err := h.sessionService.AddItem(sessionID, req.ItemID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// POST /items
// Add-by-name kept for older demo tooling.
func (h *SessionHandler) AddItemByName(c *gin.Context) {
	var req addItemByNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	item, err := h.sessionService.AddItemByName(req.ItemName)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}
