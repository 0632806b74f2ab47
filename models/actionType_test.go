package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionType(t *testing.T) {
	for _, at := range AllActionTypes {
		parsed, err := ParseActionType(string(at))
		require.NoError(t, err)
		assert.Equal(t, at, parsed)
	}

	_, err := ParseActionType("prayer_archive")
	assert.Error(t, err)
}

func TestDecodeActionData(t *testing.T) {
	tests := []struct {
		name        string
		actionType  ActionType
		raw         string
		expectError bool
		expectType  ActionData
	}{
		{
			name:       "prayer submission",
			actionType: ActionPrayerSubmission,
			raw:        `{"name":"Ruth","email":"ruth@example.com","title":"Healing","content":"Please pray"}`,
			expectType: &PrayerSubmissionData{},
		},
		{
			name:       "status change",
			actionType: ActionStatusChange,
			raw:        `{"prayerId":4,"newStatus":"answered","reason":"Praise!"}`,
			expectType: &StatusChangeData{},
		},
		{
			name:        "unknown action type",
			actionType:  ActionType("nope"),
			raw:         `{}`,
			expectError: true,
		},
		{
			name:        "empty payload",
			actionType:  ActionPrayerUpdate,
			raw:         ``,
			expectError: true,
		},
		{
			name:        "malformed json",
			actionType:  ActionPrayerDeletion,
			raw:         `{"prayerId":`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := DecodeActionData(tt.actionType, json.RawMessage(tt.raw))
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidActionData)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.expectType, data)
			assert.Equal(t, tt.actionType, data.ActionType())
		})
	}
}

func TestValidateActionData(t *testing.T) {
	yes := true

	tests := []struct {
		name        string
		data        ActionData
		expectError bool
	}{
		{
			name: "valid submission",
			data: &PrayerSubmissionData{Name: "Ruth", Title: "Healing", Content: "Please pray"},
		},
		{
			name:        "submission missing title",
			data:        &PrayerSubmissionData{Name: "Ruth", Content: "Please pray"},
			expectError: true,
		},
		{
			name:        "status change to unknown status",
			data:        &StatusChangeData{Prayer_ID: 1, New_Status: "archived"},
			expectError: true,
		},
		{
			name:        "update without prayer",
			data:        &PrayerUpdateData{Content: "Surgery went well"},
			expectError: true,
		},
		{
			name: "preference change",
			data: &PreferenceChangeData{Email: "a@b.com", Receive_Notifications: &yes},
		},
		{
			name:        "preference change without choice",
			data:        &PreferenceChangeData{Email: "a@b.com"},
			expectError: true,
		},
		{
			name:        "nil payload",
			data:        nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateActionData(tt.data)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidActionData)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdminConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultAdminConfig().Validate())

	cfg := DefaultAdminConfig()
	cfg.Verification_Code_Length = 9
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultAdminConfig()
	cfg.Verification_Code_Expiry_Minutes = 61
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultAdminConfig()
	cfg.Reminder_Interval_Days = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultAdminConfig()
	cfg.Auto_Transition_Days = 366
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestPendingRequestDataValidatesStoredPayload(t *testing.T) {
	req := PendingRequest{
		Pending_Request_ID: 9,
		Action_Type:        ActionPreferenceChange,
		Action_Data:        json.RawMessage(`{"email":"ruth@example.com","name":"Ruth"}`),
	}
	_, err := req.Data()
	assert.ErrorIs(t, err, ErrInvalidActionData)

	req.Action_Data = json.RawMessage(`{"email":"ruth@example.com","receiveNotifications":false}`)
	data, err := req.Data()
	require.NoError(t, err)
	pref, ok := data.(*PreferenceChangeData)
	require.True(t, ok)
	assert.False(t, *pref.Receive_Notifications)
}
