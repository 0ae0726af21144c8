package helpers

import (
	"errors"
	"net/http"

	"github.com/farellandr/ticketgate/internal/models"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// StatusForError maps an error kind onto its HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotificationFailure):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithServiceError writes err with its mapped status. Store and
// unknown failures get a generic message; the detail is already logged.
func RespondWithServiceError(c *gin.Context, err error, fallbackMessage string) {
	status := StatusForError(err)
	message := fallbackMessage
	switch status {
	case http.StatusBadRequest:
		message = err.Error()
	case http.StatusNotFound:
		message = "Ticket not found."
	case http.StatusConflict:
		message = "Ticket ID already exists."
	case http.StatusUnauthorized:
		message = "Invalid credentials."
		if errors.Is(err, models.ErrInvalidSignature) {
			message = "Invalid signature."
		}
	}
	_ = c.Error(err)
	RespondWithError(c, status, message)
}
