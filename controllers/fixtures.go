package controllers

import (
	"time"

	"github.com/PrayerWall/models"
	"golang.org/x/crypto/bcrypt"
)

// Test fixture data for use in tests

func MockReviewer() models.AdminUser {
	return models.AdminUser{
		Admin_User_ID: 1,
		Username:      "ruth",
		Email:         "ruth@example.com",
		First_Name:    "Ruth",
		Role:          models.AdminRoleReviewer,
		Is_Active:     true,
		Created_At:    time.Now(),
		Updated_At:    time.Now(),
	}
}

func MockAdmin() models.AdminUser {
	return models.AdminUser{
		Admin_User_ID: 2,
		Username:      "naomi",
		Email:         "naomi@example.com",
		First_Name:    "Naomi",
		Role:          models.AdminRoleAdmin,
		Is_Active:     true,
		Created_At:    time.Now(),
		Updated_At:    time.Now(),
	}
}

// MockAdminWithPassword has the password "password123"
func MockAdminWithPassword() models.AdminUser {
	admin := MockAdmin()
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	admin.Password = string(hashedPassword)
	return admin
}

func MockPendingRequest(id int, status string) models.PendingRequest {
	return models.PendingRequest{
		Pending_Request_ID: id,
		Action_Type:        models.ActionPrayerSubmission,
		Action_Data:        []byte(`{"name":"Ruth","title":"Healing","content":"Please pray."}`),
		Submitter_Email:    "ruth@example.com",
		Submitter_Name:     "Ruth",
		Approval_Status:    status,
		Created_At:         time.Now(),
	}
}

func MockPrayer(id int) models.Prayer {
	return models.Prayer{
		Prayer_ID:       id,
		Name:            "Ruth",
		Title:           "Healing for my mother",
		Content:         "Please pray for her surgery.",
		Status:          models.PrayerStatusCurrent,
		Approval_Status: models.ApprovalStatusApproved,
		Created_At:      time.Now(),
		Updated_At:      time.Now(),
	}
}
