package services

import (
	"errors"

	"github.com/PrayerWall/models"
)

var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code does not match")

	ErrRequestNotFound     = errors.New("pending request not found")
	ErrAlreadyReviewed     = errors.New("request has already been reviewed")
	ErrMissingDenialReason = errors.New("a reason is required to deny a request")
	ErrSideEffectFailed    = errors.New("approval did not take effect")
	ErrPrayerNotFound      = errors.New("prayer not found")

	ErrInvalidSubmission    = errors.New("invalid submission")
	ErrVerificationDisabled = errors.New("email verification is not enabled")
	ErrInvalidConfig        = models.ErrInvalidConfig
)
