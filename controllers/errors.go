package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/services"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCodeNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrPrayerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCodeExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCodeMismatch),
		errors.Is(err, services.ErrMissingDenialReason),
		errors.Is(err, services.ErrInvalidSubmission),
		errors.Is(err, services.ErrVerificationDisabled),
		errors.Is(err, models.ErrInvalidConfig),
		errors.Is(err, models.ErrInvalidActionData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSideEffectFailed):
		zap.S().Errorw("approval rolled back", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": services.ErrSideEffectFailed.Error()})
	default:
		zap.S().Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
