package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
)

type PrayerReader interface {
	List(ctx context.Context, status string) ([]models.Prayer, error)
	Get(ctx context.Context, prayerID int) (models.PrayerWithUpdates, error)
}

func GetPrayers(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", models.PrayerStatusCurrent, models.PrayerStatusOngoing, models.PrayerStatusAnswered, models.PrayerStatusClosed:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	prayers, err := app.Prayers.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prayers)
}

func GetPrayer(c *gin.Context) {
	prayerID, err := strconv.Atoi(c.Param("prayer_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prayer ID"})
		return
	}

	prayer, err := app.Prayers.Get(c.Request.Context(), prayerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prayer)
}
