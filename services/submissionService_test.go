package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/models"
)

type issuedCode struct {
	email  string
	name   string
	data   models.ActionData
	length int
	ttl    int
}

type fakeCodeStore struct {
	issued      []issuedCode
	validated   models.VerificationCode
	validateErr error
}

func (f *fakeCodeStore) Issue(_ context.Context, email, submitterName string, data models.ActionData, length, ttlMinutes int) (models.VerificationCode, error) {
	f.issued = append(f.issued, issuedCode{email: email, name: submitterName, data: data, length: length, ttl: ttlMinutes})
	raw, _ := json.Marshal(data)
	return models.VerificationCode{
		Verification_Code_ID: "4c1f0a52-3f7e-4a49-9d0c-2b0d6f1b8e11",
		Email:                email,
		Action_Type:          data.ActionType(),
		Action_Data:          raw,
		Submitter_Name:       submitterName,
		Expires_At:           testNow.Add(time.Duration(ttlMinutes) * time.Minute),
	}, nil
}

func (f *fakeCodeStore) Redeem(_ context.Context, _, _ string, use func(*goqu.TxDatabase, models.VerificationCode) error) (models.VerificationCode, error) {
	if f.validateErr != nil {
		return models.VerificationCode{}, f.validateErr
	}
	if use != nil {
		if err := use(nil, f.validated); err != nil {
			return models.VerificationCode{}, err
		}
	}
	return f.validated, nil
}

type enqueued struct {
	data  models.ActionData
	email string
	name  string
}

type fakeQueue struct {
	enqueued  []enqueued
	announced []models.PendingRequest
	err       error
}

func (f *fakeQueue) EnqueueTx(_ context.Context, _ *goqu.TxDatabase, data models.ActionData, email, name string) (models.PendingRequest, error) {
	return f.insert(data, email, name)
}

func (f *fakeQueue) Enqueue(_ context.Context, data models.ActionData, email, name string) (models.PendingRequest, error) {
	req, err := f.insert(data, email, name)
	if err == nil {
		f.Announce(req)
	}
	return req, err
}

func (f *fakeQueue) Announce(req models.PendingRequest) {
	f.announced = append(f.announced, req)
}

func (f *fakeQueue) insert(data models.ActionData, email, name string) (models.PendingRequest, error) {
	if f.err != nil {
		return models.PendingRequest{}, f.err
	}
	f.enqueued = append(f.enqueued, enqueued{data: data, email: email, name: name})
	return models.PendingRequest{
		Pending_Request_ID: len(f.enqueued),
		Action_Type:        data.ActionType(),
		Submitter_Email:    email,
		Submitter_Name:     name,
		Approval_Status:    models.ApprovalStatusPending,
	}, nil
}

func testSubmission() Submission {
	return Submission{
		Data: &models.PrayerSubmissionData{
			Name:    "Ruth",
			Title:   "Healing for my mother",
			Content: "Please pray for her surgery on Friday.",
		},
		Submitter_Email: " Ruth@Example.com",
		Submitter_Name:  "Ruth",
	}
}

func TestSubmitWithoutVerification(t *testing.T) {
	codes := &fakeCodeStore{}
	queue := &fakeQueue{}
	svc := NewSubmissionService(codes, queue)

	cfg := models.DefaultAdminConfig()
	result, err := svc.Submit(context.Background(), cfg, testSubmission())
	require.NoError(t, err)

	require.NotNil(t, result.Request)
	assert.Nil(t, result.Verification)
	assert.Empty(t, codes.issued, "no code should be issued when verification is off")
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "ruth@example.com", queue.enqueued[0].email)
}

func TestSubmitWithVerification(t *testing.T) {
	codes := &fakeCodeStore{}
	queue := &fakeQueue{}
	svc := NewSubmissionService(codes, queue)

	cfg := models.DefaultAdminConfig()
	cfg.Require_Email_Verification = true
	cfg.Verification_Code_Length = 8
	cfg.Verification_Code_Expiry_Minutes = 30

	result, err := svc.Submit(context.Background(), cfg, testSubmission())
	require.NoError(t, err)

	assert.Nil(t, result.Request)
	require.NotNil(t, result.Verification)
	assert.Equal(t, testNow.Add(30*time.Minute), result.Verification.Expires_At)
	assert.Empty(t, queue.enqueued, "nothing is queued before the code is confirmed")

	require.Len(t, codes.issued, 1)
	assert.Equal(t, 8, codes.issued[0].length)
	assert.Equal(t, 30, codes.issued[0].ttl)
	assert.Equal(t, "ruth@example.com", codes.issued[0].email)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{name: "bad email", mutate: func(s *Submission) { s.Submitter_Email = "not an email" }},
		{name: "missing payload", mutate: func(s *Submission) { s.Data = nil }},
		{name: "payload fails validation", mutate: func(s *Submission) { s.Data = &models.PrayerUpdateData{Prayer_ID: 0, Content: "x"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := &fakeCodeStore{}
			queue := &fakeQueue{}
			svc := NewSubmissionService(codes, queue)

			sub := testSubmission()
			tt.mutate(&sub)
			_, err := svc.Submit(context.Background(), models.DefaultAdminConfig(), sub)
			assert.ErrorIs(t, err, ErrInvalidSubmission)
			assert.Empty(t, codes.issued)
			assert.Empty(t, queue.enqueued)
		})
	}
}

func TestConfirm(t *testing.T) {
	codes := &fakeCodeStore{
		validated: models.VerificationCode{
			Verification_Code_ID: "4c1f0a52-3f7e-4a49-9d0c-2b0d6f1b8e11",
			Email:                "ruth@example.com",
			Action_Type:          models.ActionPreferenceChange,
			Action_Data:          json.RawMessage(`{"email":"ruth@example.com","name":"Ruth","receiveNotifications":false}`),
			Submitter_Name:       "Ruth",
		},
	}
	queue := &fakeQueue{}
	svc := NewSubmissionService(codes, queue)

	req, err := svc.Confirm(context.Background(), "4c1f0a52-3f7e-4a49-9d0c-2b0d6f1b8e11", "123456")
	require.NoError(t, err)
	assert.Equal(t, models.ActionPreferenceChange, req.Action_Type)

	require.Len(t, queue.enqueued, 1)
	data, ok := queue.enqueued[0].data.(*models.PreferenceChangeData)
	require.True(t, ok)
	assert.False(t, *data.Receive_Notifications)
	assert.Equal(t, "Ruth", queue.enqueued[0].name)
	require.Len(t, queue.announced, 1)
}

func TestConfirmEnqueueFailureIsReturned(t *testing.T) {
	codes := &fakeCodeStore{
		validated: models.VerificationCode{
			Verification_Code_ID: "4c1f0a52-3f7e-4a49-9d0c-2b0d6f1b8e11",
			Email:                "ruth@example.com",
			Action_Type:          models.ActionPrayerDeletion,
			Action_Data:          json.RawMessage(`{"prayerId":3}`),
		},
	}
	queue := &fakeQueue{err: sqlmock.ErrCancelled}
	svc := NewSubmissionService(codes, queue)

	_, err := svc.Confirm(context.Background(), "4c1f0a52-3f7e-4a49-9d0c-2b0d6f1b8e11", "123456")
	assert.ErrorIs(t, err, sqlmock.ErrCancelled)
	assert.Empty(t, queue.announced)
}

// A failed insert rolls back the code deletion, so the same code works on the
// next attempt.
func TestConfirmKeepsCodeWhenInsertFails(t *testing.T) {
	db, mock := setupMockDB(t)
	codes := NewVerificationService(db, &fakeDispatcher{}, testTemplates)
	codes.now = fixedClock
	svc := NewSubmissionService(codes, NewPendingRequestService(db, nil))

	id := uuid.NewString()
	expectRedeem := func() {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM "verification_code" WHERE (.+) FOR UPDATE`).
			WillReturnRows(verificationRow(id, "482913", testNow.Add(5*time.Minute)))
		mock.ExpectExec(`DELETE FROM "verification_code"`).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	expectRedeem()
	mock.ExpectQuery(`INSERT INTO "pending_request"`).WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	expectRedeem()
	mock.ExpectQuery(`INSERT INTO "pending_request"`).
		WillReturnRows(pendingRequestRows(21, models.ActionStatusChange, `{"prayerId":4,"newStatus":"answered"}`, models.ApprovalStatusPending))
	mock.ExpectCommit()

	_, err := svc.Confirm(context.Background(), id, "482913")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCodeNotFound)

	req, err := svc.Confirm(context.Background(), id, "482913")
	require.NoError(t, err)
	assert.Equal(t, 21, req.Pending_Request_ID)
	assert.Equal(t, models.ActionStatusChange, req.Action_Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPassesThroughCodeErrors(t *testing.T) {
	for _, codeErr := range []error{ErrCodeNotFound, ErrCodeExpired, ErrCodeMismatch} {
		t.Run(codeErr.Error(), func(t *testing.T) {
			queue := &fakeQueue{}
			svc := NewSubmissionService(&fakeCodeStore{validateErr: codeErr}, queue)

			_, err := svc.Confirm(context.Background(), "4c1f0a52-3f7e-4a49-9d0c-2b0d6f1b8e11", "123456")
			assert.ErrorIs(t, err, codeErr)
			assert.Empty(t, queue.enqueued)
		})
	}
}

func TestResendIssuesNewCode(t *testing.T) {
	codes := &fakeCodeStore{}
	svc := NewSubmissionService(codes, &fakeQueue{})

	cfg := models.DefaultAdminConfig()
	_, err := svc.Resend(context.Background(), cfg, testSubmission())
	assert.ErrorIs(t, err, ErrVerificationDisabled)
	assert.Empty(t, codes.issued)

	cfg.Require_Email_Verification = true
	handle, err := svc.Resend(context.Background(), cfg, testSubmission())
	require.NoError(t, err)
	assert.NotEmpty(t, handle.Code_ID)
	require.Len(t, codes.issued, 1)
	assert.Equal(t, cfg.Verification_Code_Length, codes.issued[0].length)
}
