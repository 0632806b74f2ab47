package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
)

type RequestReader interface {
	List(ctx context.Context, status string, actionType *models.ActionType) ([]models.PendingRequest, error)
	Get(ctx context.Context, requestID int) (models.PendingRequest, error)
	CountByStatus(ctx context.Context, status string) (map[models.ActionType]int, error)
}

type Decider interface {
	Approve(ctx context.Context, requestID, reviewerID int) (models.PendingRequest, error)
	Deny(ctx context.Context, requestID, reviewerID int, reason string) (models.PendingRequest, error)
}

func statusQuery(c *gin.Context) (string, bool) {
	status := c.DefaultQuery("status", models.ApprovalStatusPending)
	if !models.IsApprovalStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, approved or denied"})
		return "", false
	}
	return status, true
}

func requestIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("request_id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return 0, false
	}
	return id, true
}

func currentAdmin(c *gin.Context) models.AdminUser {
	return c.MustGet("currentAdmin").(models.AdminUser)
}

func ListRequests(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}

	var actionType *models.ActionType
	if raw := c.Query("actionType"); raw != "" {
		t, err := models.ParseActionType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		actionType = &t
	}

	requests, err := app.Requests.List(c.Request.Context(), status, actionType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func CountRequests(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}

	counts, err := app.Requests.CountByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

func GetRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	req, err := app.Requests.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func ApproveRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	req, err := app.Decisions.Approve(c.Request.Context(), id, currentAdmin(c).Admin_User_ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Request approved.",
		"request": req,
	})
}

func DenyRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}

	var body models.DenyRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := app.Decisions.Deny(c.Request.Context(), id, currentAdmin(c).Admin_User_ID, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Request denied.",
		"request": req,
	})
}
