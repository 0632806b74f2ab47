package models

import (
	"errors"
	"fmt"
	"time"
)

// AdminConfigID is the primary key of the single admin_config row.
const AdminConfigID = 1

var ErrInvalidConfig = errors.New("invalid admin config")

type AdminConfig struct {
	Admin_Config_ID                  int       `json:"-"`
	Require_Email_Verification       bool      `json:"requireEmailVerification"`
	Verification_Code_Length         int       `json:"verificationCodeLength"`
	Verification_Code_Expiry_Minutes int       `json:"verificationCodeExpiryMinutes"`
	Reminder_Interval_Days           int       `json:"reminderIntervalDays"`
	Auto_Transition_Days             int       `json:"autoTransitionDays"`
	Updated_By                       *int      `json:"updatedBy" goqu:"skipinsert"`
	Updated_At                       time.Time `json:"updatedAt" goqu:"skipinsert"`
}

// DefaultAdminConfig is used until an administrator saves a configuration.
// Both scans start disabled.
func DefaultAdminConfig() AdminConfig {
	return AdminConfig{
		Admin_Config_ID:                  AdminConfigID,
		Require_Email_Verification:       false,
		Verification_Code_Length:         6,
		Verification_Code_Expiry_Minutes: 15,
		Reminder_Interval_Days:           0,
		Auto_Transition_Days:             0,
	}
}

func (c AdminConfig) Validate() error {
	if c.Verification_Code_Length < 4 || c.Verification_Code_Length > 8 {
		return fmt.Errorf("%w: verificationCodeLength must be between 4 and 8", ErrInvalidConfig)
	}
	if c.Verification_Code_Expiry_Minutes < 5 || c.Verification_Code_Expiry_Minutes > 60 {
		return fmt.Errorf("%w: verificationCodeExpiryMinutes must be between 5 and 60", ErrInvalidConfig)
	}
	if c.Reminder_Interval_Days < 0 || c.Reminder_Interval_Days > 90 {
		return fmt.Errorf("%w: reminderIntervalDays must be between 0 and 90", ErrInvalidConfig)
	}
	if c.Auto_Transition_Days < 0 || c.Auto_Transition_Days > 365 {
		return fmt.Errorf("%w: autoTransitionDays must be between 0 and 365", ErrInvalidConfig)
	}
	return nil
}
