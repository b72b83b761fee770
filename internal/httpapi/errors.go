package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/directory"
	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/models"
)

// Error maps a domain error onto the HTTP error envelope. Validation errors
// become 400, unknown entities 404, conflicts 409, anything else an opaque
// 500.
func Error(c *gin.Context, err error) {
	ctx := c.Request.Context()

	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, models.ErrInvalidCart),
		errors.Is(err, models.ErrInvalidAddress),
		errors.Is(err, models.ErrNoteRequired):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, directory.ErrCustomerNotFound),
		errors.Is(err, directory.ErrRestaurantNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNotCancellable),
		errors.Is(err, models.ErrDuplicateNumber),
		errors.Is(err, models.ErrConcurrentUpdate):
		status = http.StatusConflict
		message = err.Error()
	default:
		logger.FromCtx(ctx).Error("request failed", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":      message,
		"request_id": logger.RequestIDFrom(ctx),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
