package models

import (
	"encoding/json"
	"time"
)

type VerificationCode struct {
	Verification_Code_ID string          `json:"codeId"`
	Email                string          `json:"email"`
	Code                 string          `json:"-"`
	Action_Type          ActionType      `json:"actionType"`
	Action_Data          json.RawMessage `json:"-"`
	Submitter_Name       string          `json:"-"`
	Created_At           time.Time       `json:"createdAt"`
	Expires_At           time.Time       `json:"expiresAt"`
}

// VerificationHandle is what a client keeps while waiting for the code email.
type VerificationHandle struct {
	Code_ID    string    `json:"codeId"`
	Expires_At time.Time `json:"expiresAt"`
}
