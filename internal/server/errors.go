package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	actiondomain "github.com/ganhesocial/ganhesocial/internal/action/domain"
	assignmentdomain "github.com/ganhesocial/ganhesocial/internal/assignment/domain"
	orderdomain "github.com/ganhesocial/ganhesocial/internal/order/domain"
	userdomain "github.com/ganhesocial/ganhesocial/internal/user/domain"
	"github.com/ganhesocial/ganhesocial/pkg/db/pagination"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrInternal       = errors.New("internal_error")
)

// ErrorHandlingMiddleware maps domain errors pushed onto the gin
// context to JSON payloads. Anything unclassified collapses to a
// generic internal error so upstream detail never leaks to callers.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, userdomain.ErrInvalidToken),
		errors.Is(err, userdomain.ErrAccountNotLinked):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, userdomain.ErrAccountAmbiguous),
		errors.Is(err, assignmentdomain.ErrMissingToken),
		errors.Is(err, assignmentdomain.ErrMissingOrderID),
		errors.Is(err, orderdomain.ErrInvalidNetwork),
		errors.Is(err, orderdomain.ErrInvalidActionType),
		errors.Is(err, orderdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrInvalidLink),
		errors.Is(err, pagination.ErrInvalidToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, actiondomain.ErrNotFound),
		errors.Is(err, userdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
