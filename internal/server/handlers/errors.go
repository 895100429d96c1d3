package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/domain/models"
)

// respondError maps domain error kinds onto HTTP status codes.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var posting *models.PostingError
	switch {
	case errors.As(err, &posting):
		logger.Error("bill awaiting revenue reconciliation", zap.String("bill", posting.BillNumber), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":       "bill stored but revenue posting failed; it will be reconciled",
			"bill_number": posting.BillNumber,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrFatal):
		logger.Error("fatal storage error", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, message string, err error) {
	logger.Warn(message, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
