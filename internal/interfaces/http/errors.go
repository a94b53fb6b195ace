package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-workflow/internal/domain/apperr"
)

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    apperr.Kind `json:"code,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindForbidden:         http.StatusForbidden,
	apperr.KindUnauthenticated:   http.StatusUnauthorized,
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindInvalidTransition: http.StatusUnprocessableEntity,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindAlreadyExists:     http.StatusConflict,
}

// statusFor maps an application error to an HTTP status
func statusFor(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Internal errors are recorded on
// the gin context for the request log and never echoed to the client.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal server error"
	}

	c.JSON(status, Response{Success: false, Error: msg, Code: kind})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}
