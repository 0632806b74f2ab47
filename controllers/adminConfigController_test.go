package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/models"
)

type fakeScanner struct {
	reminderDays   int
	transitionDays int
	err            error
}

func (f *fakeScanner) ScanForReminders(_ context.Context, intervalDays int) ([]models.Prayer, error) {
	f.reminderDays = intervalDays
	if f.err != nil {
		return nil, f.err
	}
	return []models.Prayer{MockPrayer(3)}, nil
}

func (f *fakeScanner) ScanForAutoTransition(_ context.Context, days int) ([]models.Prayer, error) {
	f.transitionDays = days
	if f.err != nil {
		return nil, f.err
	}
	p := MockPrayer(4)
	p.Status = models.PrayerStatusOngoing
	return []models.Prayer{p}, nil
}

func TestGetConfig(t *testing.T) {
	cfg := models.DefaultAdminConfig()
	cfg.Require_Email_Verification = true
	UseServices(t, Services{Configs: &fakeConfigs{cfg: cfg}, Scanner: &fakeScanner{}})

	c, w := SetupTestContext()
	SetAuthenticatedAdmin(c, MockAdmin())
	JSONRequest(c, "GET", "/admin/config", nil)

	GetConfig(c)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(w)
	assert.Equal(t, true, response["requireEmailVerification"])
	assert.Equal(t, float64(6), response["verificationCodeLength"])
	assert.NotContains(t, response, "adminConfigId")
}

func TestUpdateConfig(t *testing.T) {
	valid := gin.H{
		"requireEmailVerification":      true,
		"verificationCodeLength":        8,
		"verificationCodeExpiryMinutes": 30,
		"reminderIntervalDays":          14,
		"autoTransitionDays":            60,
	}
	invalid := gin.H{
		"requireEmailVerification":      true,
		"verificationCodeLength":        12,
		"verificationCodeExpiryMinutes": 30,
	}

	tests := []struct {
		name           string
		body           gin.H
		expectedStatus int
	}{
		{name: "saved", body: valid, expectedStatus: http.StatusOK},
		{name: "code length out of range", body: invalid, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configs := &fakeConfigs{}
			UseServices(t, Services{Configs: configs, Scanner: &fakeScanner{}})

			c, w := SetupTestContext()
			SetAuthenticatedAdmin(c, MockAdmin())
			JSONRequest(c, "PUT", "/admin/config", tt.body)

			UpdateConfig(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				require.NotNil(t, configs.updated)
				assert.Equal(t, 8, configs.updated.Verification_Code_Length)
				require.NotNil(t, configs.updated.Updated_By)
				assert.Equal(t, MockAdmin().Admin_User_ID, *configs.updated.Updated_By)
			} else {
				assert.Nil(t, configs.updated)
			}
		})
	}
}

func TestRunScans(t *testing.T) {
	cfg := models.DefaultAdminConfig()
	cfg.Reminder_Interval_Days = 14
	cfg.Auto_Transition_Days = 30

	t.Run("reminders", func(t *testing.T) {
		scanner := &fakeScanner{}
		UseServices(t, Services{Configs: &fakeConfigs{cfg: cfg}, Scanner: scanner})

		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockAdmin())
		JSONRequest(c, "POST", "/admin/scans/reminders", nil)

		RunReminderScan(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 14, scanner.reminderDays)
		response := decodeBody(w)
		assert.Len(t, response["reminded"], 1)
		assert.Equal(t, float64(14), response["reminderIntervalDays"])
	})

	t.Run("auto transition", func(t *testing.T) {
		scanner := &fakeScanner{}
		UseServices(t, Services{Configs: &fakeConfigs{cfg: cfg}, Scanner: scanner})

		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockAdmin())
		JSONRequest(c, "POST", "/admin/scans/auto-transition", nil)

		RunAutoTransitionScan(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 30, scanner.transitionDays)
		response := decodeBody(w)
		transitioned := response["transitioned"].([]interface{})
		require.Len(t, transitioned, 1)
		assert.Equal(t, "ongoing", transitioned[0].(map[string]interface{})["status"])
	})

	t.Run("scan failure", func(t *testing.T) {
		UseServices(t, Services{Configs: &fakeConfigs{cfg: cfg}, Scanner: &fakeScanner{err: assert.AnError}})

		c, w := SetupTestContext()
		SetAuthenticatedAdmin(c, MockAdmin())
		JSONRequest(c, "POST", "/admin/scans/reminders", nil)

		RunReminderScan(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decodeBody(w)["error"])
	})
}
