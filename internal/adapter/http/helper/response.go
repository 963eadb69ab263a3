package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/model/response"
	"tasklist/internal/core/validation"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_ERROR"
)

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	if statusCode == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}

	c.AbortWithStatusJSON(statusCode, errorResponse)
}

func SendValidationError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, CodeValidation, validation.FormatValidationErrors(err))
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	errors := []response.ValidationError{
		{
			Field:   "server",
			Message: message,
		},
	}

	SendError(c, http.StatusInternalServerError, CodeInternal, errors, details...)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "auth",
			Message: message,
		},
	}

	SendError(c, http.StatusUnauthorized, CodeUnauthorized, errors)
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	errors := []response.ValidationError{
		{
			Field:   field,
			Message: message,
		},
	}

	SendError(c, http.StatusBadRequest, CodeBadRequest, errors)
}

func SendNotFoundError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "resource",
			Message: message,
		},
	}

	SendError(c, http.StatusNotFound, CodeNotFound, errors)
}

// SendDomainError maps a core error to its HTTP form. It reports false for
// errors it does not recognise, leaving the response unwritten.
func SendDomainError(c *gin.Context, err error) bool {
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &conflict):
		SendError(c, http.StatusBadRequest, CodeConflict, []response.ValidationError{
			{Field: conflict.Field, Message: conflict.Error()},
		})
	case errors.Is(err, domain.ErrValidation):
		SendValidationError(c, err)
	case errors.Is(err, domain.ErrUnauthorized):
		SendUnauthorizedError(c, domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		SendUnauthorizedError(c, domain.ErrUnauthenticated.Error())
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, "Todo not found")
	default:
		return false
	}

	return true
}
