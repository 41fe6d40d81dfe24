package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/vehiclerental/internal/domain"
	"github.com/gin-gonic/gin"
)

const codeUnauthorized = "UNAUTHORIZED"

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorEnvelope{Success: false, Message: message, Code: code})
}

// respondError maps engine error kinds onto HTTP statuses. Anything that is
// not an engine error is reported as an internal error without detail.
func respondError(c *gin.Context, err error) {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, string(domain.KindStorageFailure), "internal server error")
		return
	}
	if derr.Kind == domain.KindStorageFailure {
		_ = c.Error(err)
	}
	abortWithError(c, statusFor(derr.Kind), string(derr.Kind), derr.Message)
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
