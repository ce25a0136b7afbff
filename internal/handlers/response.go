package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moneybadgers/walkthrough-backend/internal/types"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps the domain sentinels onto HTTP statuses.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, types.ErrNoActiveSession):
		RespondError(c, http.StatusNotFound, "no_active_session", err)
	case errors.Is(err, types.ErrUnknownItem):
		RespondError(c, http.StatusNotFound, "unknown_item", err)
	case errors.Is(err, types.ErrSessionNotFound):
		RespondError(c, http.StatusConflict, "session_not_found", err)
	case errors.Is(err, types.ErrSessionCompleted):
		RespondError(c, http.StatusConflict, "session_completed", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
