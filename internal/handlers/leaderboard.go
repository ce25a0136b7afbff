package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/services"
)

type LeaderboardHandler struct {
	log                *logger.Logger
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(log *logger.Logger, svc services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		log:                log.With("handler", "LeaderboardHandler"),
		leaderboardService: svc,
	}
}

// GET /leaderboard?limit=10
func (h *LeaderboardHandler) Top(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	entries, err := h.leaderboardService.TopEntries(c.Request.Context(), limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}

// DELETE /leaderboard
// Demo maintenance: clear all recorded runs.
func (h *LeaderboardHandler) Wipe(c *gin.Context) {
	if err := h.leaderboardService.Wipe(c.Request.Context()); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"wiped": true})
}
