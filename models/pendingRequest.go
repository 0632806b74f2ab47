package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Approval status constants shared by pending requests, prayers and updates.
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusDenied   = "denied"
)

func IsApprovalStatus(s string) bool {
	return s == ApprovalStatusPending || s == ApprovalStatusApproved || s == ApprovalStatusDenied
}

// PendingRequest is a submitted action waiting for (or holding) an
// administrator's decision. Every action type shares this row shape.
type PendingRequest struct {
	Pending_Request_ID int             `json:"pendingRequestId" goqu:"skipinsert"`
	Action_Type        ActionType      `json:"actionType"`
	Action_Data        json.RawMessage `json:"actionData"`
	Submitter_Email    string          `json:"submitterEmail"`
	Submitter_Name     string          `json:"submitterName"`
	Approval_Status    string          `json:"approvalStatus"`
	Reviewed_By        *int            `json:"reviewedBy"`
	Reviewed_At        *time.Time      `json:"reviewedAt"`
	Denial_Reason      *string         `json:"denialReason"`
	Created_At         time.Time       `json:"createdAt" goqu:"skipinsert"`
}

// Data decodes the stored payload for the request's action type and checks
// it against the same rules applied on submission.
func (r PendingRequest) Data() (ActionData, error) {
	data, err := DecodeActionData(r.Action_Type, r.Action_Data)
	if err == nil {
		err = ValidateActionData(data)
	}
	if err != nil {
		return nil, fmt.Errorf("pending request %d: %w", r.Pending_Request_ID, err)
	}
	return data, nil
}

type SubmissionRequest struct {
	Submitter_Name  string          `json:"submitterName" binding:"required,max=100"`
	Submitter_Email string          `json:"submitterEmail" binding:"required,email"`
	Data            json.RawMessage `json:"data" binding:"required"`
}

// ResendCodeRequest carries a whole submission again, since nothing about it
// is stored until a code is confirmed.
type ResendCodeRequest struct {
	Action_Type ActionType `json:"actionType" binding:"required"`
	SubmissionRequest
}

type ConfirmCodeRequest struct {
	Code string `json:"code" binding:"required,numeric,min=4,max=8"`
}

type DenyRequest struct {
	Reason string `json:"reason"`
}
