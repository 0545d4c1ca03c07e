package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/validation"
)

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrValidation, http.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrCapacityExceeded, http.StatusConflict, "CAPACITY_EXCEEDED"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
	{domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
}

// respondError writes the error envelope. Unclassified errors are attached to
// the gin context for the request logger and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	for _, kind := range errorKinds {
		if !errors.Is(err, kind.err) {
			continue
		}
		body := errorBody{Code: kind.code, Message: err.Error()}
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			body.Message = "validation failed"
			body.Fields = verrs
		}
		c.AbortWithStatusJSON(kind.status, errorResponse{Error: body})
		return
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errorBody{
		Code:    "INTERNAL",
		Message: "internal server error",
	}})
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: errorBody{Code: "VALIDATION", Message: message}})
}
