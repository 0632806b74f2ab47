package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
)

// ActionType identifies what a submitted request asks an administrator to do.
type ActionType string

const (
	ActionPrayerSubmission ActionType = "prayer_submission"
	ActionPrayerUpdate     ActionType = "prayer_update"
	ActionPrayerDeletion   ActionType = "prayer_deletion"
	ActionStatusChange     ActionType = "status_change"
	ActionUpdateDeletion   ActionType = "update_deletion"
	ActionPreferenceChange ActionType = "preference_change"
)

// AllActionTypes lists every variant. Aggregate views iterate this slice so a
// new variant only has to be added here.
var AllActionTypes = []ActionType{
	ActionPrayerSubmission,
	ActionPrayerUpdate,
	ActionPrayerDeletion,
	ActionStatusChange,
	ActionUpdateDeletion,
	ActionPreferenceChange,
}

var ErrInvalidActionData = errors.New("invalid action data")

func ParseActionType(s string) (ActionType, error) {
	for _, t := range AllActionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown action type %q", s)
}

// Label is the human readable name used in emails and push alerts.
func (t ActionType) Label() string {
	switch t {
	case ActionPrayerSubmission:
		return "prayer request"
	case ActionPrayerUpdate:
		return "prayer update"
	case ActionPrayerDeletion:
		return "prayer removal request"
	case ActionStatusChange:
		return "prayer status change"
	case ActionUpdateDeletion:
		return "update removal request"
	case ActionPreferenceChange:
		return "notification preference change"
	}
	return string(t)
}

// ActionData is the closed set of payloads a request can carry. Each payload
// struct reports the ActionType it belongs to.
type ActionData interface {
	ActionType() ActionType
}

type PrayerSubmissionData struct {
	Name         string `json:"name" binding:"required,max=100"`
	Email        string `json:"email" binding:"omitempty,email"`
	Title        string `json:"title" binding:"required,max=200"`
	Content      string `json:"content" binding:"required,max=5000"`
	Is_Anonymous bool   `json:"isAnonymous"`
}

type PrayerUpdateData struct {
	Prayer_ID int    `json:"prayerId" binding:"required,gt=0"`
	Content   string `json:"content" binding:"required,max=5000"`
}

type PrayerDeletionData struct {
	Prayer_ID int    `json:"prayerId" binding:"required,gt=0"`
	Reason    string `json:"reason" binding:"max=1000"`
}

type StatusChangeData struct {
	Prayer_ID  int    `json:"prayerId" binding:"required,gt=0"`
	New_Status string `json:"newStatus" binding:"required,oneof=current ongoing answered closed"`
	Reason     string `json:"reason" binding:"max=1000"`
}

type UpdateDeletionData struct {
	Prayer_Update_ID int    `json:"prayerUpdateId" binding:"required,gt=0"`
	Prayer_ID        int    `json:"prayerId" binding:"required,gt=0"`
	Reason           string `json:"reason" binding:"max=1000"`
}

type PreferenceChangeData struct {
	Email                 string `json:"email" binding:"required,email"`
	Name                  string `json:"name" binding:"max=100"`
	Receive_Notifications *bool  `json:"receiveNotifications" binding:"required"`
}

func (PrayerSubmissionData) ActionType() ActionType { return ActionPrayerSubmission }
func (PrayerUpdateData) ActionType() ActionType     { return ActionPrayerUpdate }
func (PrayerDeletionData) ActionType() ActionType   { return ActionPrayerDeletion }
func (StatusChangeData) ActionType() ActionType     { return ActionStatusChange }
func (UpdateDeletionData) ActionType() ActionType   { return ActionUpdateDeletion }
func (PreferenceChangeData) ActionType() ActionType { return ActionPreferenceChange }

func newActionData(t ActionType) (ActionData, error) {
	switch t {
	case ActionPrayerSubmission:
		return &PrayerSubmissionData{}, nil
	case ActionPrayerUpdate:
		return &PrayerUpdateData{}, nil
	case ActionPrayerDeletion:
		return &PrayerDeletionData{}, nil
	case ActionStatusChange:
		return &StatusChangeData{}, nil
	case ActionUpdateDeletion:
		return &UpdateDeletionData{}, nil
	case ActionPreferenceChange:
		return &PreferenceChangeData{}, nil
	}
	return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidActionData, t)
}

// DecodeActionData turns a stored or submitted JSON payload into the typed
// struct for t. The result is always a pointer to one of the payload structs.
func DecodeActionData(t ActionType, raw json.RawMessage) (ActionData, error) {
	data, err := newActionData(t)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing payload for %s", ErrInvalidActionData, t)
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActionData, err)
	}
	return data, nil
}

// ValidateActionData checks a payload against its binding rules.
func ValidateActionData(data ActionData) error {
	if data == nil {
		return fmt.Errorf("%w: missing payload", ErrInvalidActionData)
	}
	if err := binding.Validator.ValidateStruct(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActionData, err)
	}
	return nil
}

func EncodeActionData(data ActionData) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidActionData, err)
	}
	return raw, nil
}
