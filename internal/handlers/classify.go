package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moneybadgers/walkthrough-backend/internal/logger"
	"github.com/moneybadgers/walkthrough-backend/internal/services"
)

type ClassifyHandler struct {
	log            *logger.Logger
	sessionService services.SessionService
}

func NewClassifyHandler(log *logger.Logger, svc services.SessionService) *ClassifyHandler {
	return &ClassifyHandler{
		log:            log.With("handler", "ClassifyHandler"),
		sessionService: svc,
	}
}

// POST /classify-item
// Body is raw image bytes. A matched item is added to the current
// session; the classification result is returned either way.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	img, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	if len(img) == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("empty image body"))
		return
	}

	res, err := h.sessionService.ClassifyAndAdd(c.Request.Context(), img)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, res)
}
