package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/services"
)

type ConfigStore interface {
	Get(ctx context.Context) (models.AdminConfig, error)
	Update(ctx context.Context, cfg models.AdminConfig, adminID int) (models.AdminConfig, error)
}

type Scanner interface {
	ScanForReminders(ctx context.Context, intervalDays int) ([]models.Prayer, error)
	ScanForAutoTransition(ctx context.Context, days int) ([]models.Prayer, error)
}

func GetConfig(c *gin.Context) {
	cfg, err := app.Configs.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func UpdateConfig(c *gin.Context) {
	var cfg models.AdminConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := app.Configs.Update(c.Request.Context(), cfg, currentAdmin(c).Admin_User_ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

// RunReminderScan runs the reminder scan now with the saved interval.
func RunReminderScan(c *gin.Context) {
	cfg, err := app.Configs.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	prayers, err := app.Scanner.ScanForReminders(c.Request.Context(), cfg.Reminder_Interval_Days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.ScanSummary{Reminded: prayers, ReminderDays: cfg.Reminder_Interval_Days})
}

// RunAutoTransitionScan runs the auto-transition scan now with the saved threshold.
func RunAutoTransitionScan(c *gin.Context) {
	cfg, err := app.Configs.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	prayers, err := app.Scanner.ScanForAutoTransition(c.Request.Context(), cfg.Auto_Transition_Days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, services.ScanSummary{Transitioned: prayers, TransitionDays: cfg.Auto_Transition_Days})
}
