package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/models"
)

var errSendFailed = errors.New("smtp: mailbox unavailable")

// testNow is the fixed clock used by service tests.
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func setupMockDB(t *testing.T) (*goqu.Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return goqu.New("postgres", db), mock
}

// fakeDispatcher records every message and fails the addresses in fail.
type fakeDispatcher struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]bool
}

func (f *fakeDispatcher) Send(_ context.Context, msg Message) DispatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)

	var result DispatchResult
	for _, to := range msg.To {
		if f.fail[to] {
			result.Failures = append(result.Failures, RecipientFailure{Email: to, Err: errSendFailed})
			continue
		}
		result.Sent++
	}
	return result
}

func (f *fakeDispatcher) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

var testTemplates = EmailTemplates{SiteName: "Grace Chapel", SiteURL: "https://prayers.example.org"}

var verificationCodeColumns = []string{
	"verification_code_id", "email", "code", "action_type", "action_data",
	"submitter_name", "created_at", "expires_at",
}

var pendingRequestColumns = []string{
	"pending_request_id", "action_type", "action_data", "submitter_email", "submitter_name",
	"approval_status", "reviewed_by", "reviewed_at", "denial_reason", "created_at",
}

var prayerColumns = []string{
	"prayer_id", "name", "email", "title", "content", "is_anonymous", "status",
	"approval_status", "last_reminder_sent", "created_at", "updated_at",
}

func pendingRequestRows(id int, actionType models.ActionType, data string, status string) *sqlmock.Rows {
	return sqlmock.NewRows(pendingRequestColumns).
		AddRow(id, string(actionType), []byte(data), "ruth@example.com", "Ruth", status, nil, nil, nil, testNow.Add(-time.Hour))
}

func prayerRow(rows *sqlmock.Rows, id int, email, status string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(id, "Ruth", email, "Healing for my mother", "Please pray for her surgery.", false,
		status, models.ApprovalStatusApproved, nil, createdAt, createdAt)
}

func boolPtr(b bool) *bool { return &b }
