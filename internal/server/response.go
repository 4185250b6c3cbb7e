package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lectern/internal/session"
)

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var errInvalidRequest = errors.New("invalid request")

// errorTable maps domain errors to a status and code. The first match wins.
var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{session.ErrNoActiveSession, http.StatusBadRequest, "session_not_found"},
	{session.ErrLessonNotFound, http.StatusNotFound, "lesson_not_found"},
	{errInvalidRequest, http.StatusBadRequest, "invalid_request"},
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondErr picks status and code for err from errorTable.
func respondErr(c *gin.Context, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			respondError(c, e.status, e.code, err)
			return
		}
	}
	respondError(c, http.StatusInternalServerError, "internal", err)
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
