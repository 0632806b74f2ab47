package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/services"
)

type Submitter interface {
	Submit(ctx context.Context, cfg models.AdminConfig, sub services.Submission) (services.SubmitResult, error)
	Resend(ctx context.Context, cfg models.AdminConfig, sub services.Submission) (models.VerificationHandle, error)
	Confirm(ctx context.Context, codeID, code string) (models.PendingRequest, error)
}

func decodeSubmission(actionType string, req models.SubmissionRequest) (services.Submission, error) {
	t, err := models.ParseActionType(actionType)
	if err != nil {
		return services.Submission{}, err
	}
	data, err := models.DecodeActionData(t, req.Data)
	if err != nil {
		return services.Submission{}, err
	}
	return services.Submission{
		Data:            data,
		Submitter_Email: req.Submitter_Email,
		Submitter_Name:  req.Submitter_Name,
	}, nil
}

// SubmitRequest accepts one of the six request types. The response is 201 with
// the queued request, or 202 with a code handle when email verification is on.
func SubmitRequest(c *gin.Context) {
	var body models.SubmissionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := decodeSubmission(c.Param("action_type"), body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := app.Configs.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := app.Submissions.Submit(c.Request.Context(), cfg, sub)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Verification != nil {
		c.JSON(http.StatusAccepted, gin.H{
			"message":      "Check your email for a verification code.",
			"verification": result.Verification,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Request submitted for review.",
		"request": result.Request,
	})
}

func ResendCode(c *gin.Context) {
	var body models.ResendCodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := decodeSubmission(string(body.Action_Type), body.SubmissionRequest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := app.Configs.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	handle, err := app.Submissions.Resend(c.Request.Context(), cfg, sub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":      "A new verification code has been sent.",
		"verification": handle,
	})
}

func ConfirmCode(c *gin.Context) {
	var body models.ConfirmCodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := app.Submissions.Confirm(c.Request.Context(), c.Param("code_id"), body.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Email confirmed. Your request has been submitted for review.",
		"request": req,
	})
}
