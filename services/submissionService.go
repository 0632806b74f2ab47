package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/PrayerWall/models"
)

// CodeStore issues and consumes verification codes.
type CodeStore interface {
	Issue(ctx context.Context, email, submitterName string, data models.ActionData, length, ttlMinutes int) (models.VerificationCode, error)
	Redeem(ctx context.Context, codeID, code string, use func(tx *goqu.TxDatabase, vc models.VerificationCode) error) (models.VerificationCode, error)
}

// RequestQueue accepts requests for administrator review.
type RequestQueue interface {
	Enqueue(ctx context.Context, data models.ActionData, submitterEmail, submitterName string) (models.PendingRequest, error)
	EnqueueTx(ctx context.Context, tx *goqu.TxDatabase, data models.ActionData, submitterEmail, submitterName string) (models.PendingRequest, error)
	Announce(req models.PendingRequest)
}

// Submission is one public request before it has been verified or queued.
type Submission struct {
	Data            models.ActionData
	Submitter_Email string
	Submitter_Name  string
}

// SubmitResult holds exactly one of Request (queued immediately) or
// Verification (waiting on an emailed code).
type SubmitResult struct {
	Request      *models.PendingRequest     `json:"request,omitempty"`
	Verification *models.VerificationHandle `json:"verification,omitempty"`
}

// SubmissionService decides whether a public submission goes straight to the
// review queue or first has to prove its email address.
type SubmissionService struct {
	codes CodeStore
	queue RequestQueue
}

func NewSubmissionService(codes CodeStore, queue RequestQueue) *SubmissionService {
	return &SubmissionService{codes: codes, queue: queue}
}

// Submit routes sub according to cfg. With verification off the request is
// queued now; with it on a code is issued and nothing is queued.
func (s *SubmissionService) Submit(ctx context.Context, cfg models.AdminConfig, sub Submission) (SubmitResult, error) {
	sub, err := normalizeSubmission(sub)
	if err != nil {
		return SubmitResult{}, err
	}

	if !cfg.Require_Email_Verification {
		req, err := s.queue.Enqueue(ctx, sub.Data, sub.Submitter_Email, sub.Submitter_Name)
		if err != nil {
			return SubmitResult{}, err
		}
		submissionsTotal.WithLabelValues(string(req.Action_Type), "queued").Inc()
		return SubmitResult{Request: &req}, nil
	}

	handle, err := s.issue(ctx, cfg, sub)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Verification: &handle}, nil
}

// Resend issues a new code for a submission whose first code was lost or
// expired. The earlier code stays valid until it expires.
func (s *SubmissionService) Resend(ctx context.Context, cfg models.AdminConfig, sub Submission) (models.VerificationHandle, error) {
	if !cfg.Require_Email_Verification {
		return models.VerificationHandle{}, ErrVerificationDisabled
	}
	sub, err := normalizeSubmission(sub)
	if err != nil {
		return models.VerificationHandle{}, err
	}
	return s.issue(ctx, cfg, sub)
}

func (s *SubmissionService) issue(ctx context.Context, cfg models.AdminConfig, sub Submission) (models.VerificationHandle, error) {
	vc, err := s.codes.Issue(ctx, sub.Submitter_Email, sub.Submitter_Name, sub.Data,
		cfg.Verification_Code_Length, cfg.Verification_Code_Expiry_Minutes)
	if err != nil {
		return models.VerificationHandle{}, err
	}
	submissionsTotal.WithLabelValues(string(vc.Action_Type), "code_sent").Inc()
	return models.VerificationHandle{Code_ID: vc.Verification_Code_ID, Expires_At: vc.Expires_At}, nil
}

// Confirm redeems a code and queues the request it was issued for. The code is
// only used up if the request was stored, so a failed insert can be retried
// with the same code. Code errors (not found, expired, mismatch) are returned
// unchanged.
func (s *SubmissionService) Confirm(ctx context.Context, codeID, code string) (models.PendingRequest, error) {
	var req models.PendingRequest
	_, err := s.codes.Redeem(ctx, codeID, code, func(tx *goqu.TxDatabase, vc models.VerificationCode) error {
		data, err := models.DecodeActionData(vc.Action_Type, vc.Action_Data)
		if err != nil {
			return fmt.Errorf("verification code %s: %w", vc.Verification_Code_ID, err)
		}
		req, err = s.queue.EnqueueTx(ctx, tx, data, vc.Email, vc.Submitter_Name)
		return err
	})
	if err != nil {
		return models.PendingRequest{}, err
	}

	s.queue.Announce(req)
	submissionsTotal.WithLabelValues(string(req.Action_Type), "queued").Inc()
	return req, nil
}

func normalizeSubmission(sub Submission) (Submission, error) {
	sub.Submitter_Email = strings.ToLower(strings.TrimSpace(sub.Submitter_Email))
	sub.Submitter_Name = strings.TrimSpace(sub.Submitter_Name)

	if _, err := mail.ParseAddress(sub.Submitter_Email); err != nil {
		return Submission{}, fmt.Errorf("%w: submitter email %q", ErrInvalidSubmission, sub.Submitter_Email)
	}
	if err := models.ValidateActionData(sub.Data); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	return sub, nil
}
