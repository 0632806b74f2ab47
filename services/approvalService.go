package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exec"
	"go.uber.org/zap"

	"github.com/PrayerWall/models"
)

// ApprovalService records administrator decisions. Approving a request claims
// it and applies its side effect in one transaction, so a request is never
// approved without its effect and never applied twice.
type ApprovalService struct {
	db        *goqu.Database
	mailer    Dispatcher
	templates EmailTemplates
	now       func() time.Time

	broadcasts sync.WaitGroup
}

func NewApprovalService(db *goqu.Database, mailer Dispatcher, templates EmailTemplates) *ApprovalService {
	return &ApprovalService{
		db:        db,
		mailer:    mailer,
		templates: templates,
		now:       time.Now,
	}
}

// Approve marks a pending request approved and performs what it asks for.
func (s *ApprovalService) Approve(ctx context.Context, requestID, reviewerID int) (models.PendingRequest, error) {
	var (
		req       models.PendingRequest
		broadcast *Message
	)
	now := s.now().UTC()

	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		found, err := tx.Update("pending_request").
			Set(goqu.Record{
				"approval_status": models.ApprovalStatusApproved,
				"reviewed_by":     reviewerID,
				"reviewed_at":     now,
			}).
			Where(
				goqu.C("pending_request_id").Eq(requestID),
				goqu.C("approval_status").Eq(models.ApprovalStatusPending),
			).
			Returning(goqu.Star()).
			Executor().ScanStructContext(ctx, &req)
		if err != nil {
			return fmt.Errorf("failed to claim pending request %d: %w", requestID, err)
		}
		if !found {
			return unclaimable(ctx, tx, requestID)
		}

		broadcast, err = s.applySideEffect(ctx, tx, req, now)
		if err != nil {
			return fmt.Errorf("%w: request %d: %w", ErrSideEffectFailed, requestID, err)
		}
		return nil
	})
	if err != nil {
		return models.PendingRequest{}, err
	}

	decisionsTotal.WithLabelValues(string(req.Action_Type), models.ApprovalStatusApproved).Inc()
	zap.S().Infow("request approved", "pendingRequestId", req.Pending_Request_ID, "actionType", req.Action_Type, "reviewedBy", reviewerID)

	s.notifySubmitter(ctx, req, s.templates.RequestApproved(req.Submitter_Name, req.Action_Type))
	if broadcast != nil {
		s.broadcastToSubscribers(*broadcast)
	}
	return req, nil
}

// Deny marks a pending request denied. The reason is mandatory and is passed
// on to the submitter.
func (s *ApprovalService) Deny(ctx context.Context, requestID, reviewerID int, reason string) (models.PendingRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.PendingRequest{}, ErrMissingDenialReason
	}

	var req models.PendingRequest
	found, err := s.db.Update("pending_request").
		Set(goqu.Record{
			"approval_status": models.ApprovalStatusDenied,
			"denial_reason":   reason,
			"reviewed_by":     reviewerID,
			"reviewed_at":     s.now().UTC(),
		}).
		Where(
			goqu.C("pending_request_id").Eq(requestID),
			goqu.C("approval_status").Eq(models.ApprovalStatusPending),
		).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &req)
	if err != nil {
		return models.PendingRequest{}, fmt.Errorf("failed to deny pending request %d: %w", requestID, err)
	}
	if !found {
		return models.PendingRequest{}, unclaimable(ctx, s.db, requestID)
	}

	decisionsTotal.WithLabelValues(string(req.Action_Type), models.ApprovalStatusDenied).Inc()
	zap.S().Infow("request denied", "pendingRequestId", req.Pending_Request_ID, "actionType", req.Action_Type, "reviewedBy", reviewerID)

	s.notifySubmitter(ctx, req, s.templates.RequestDenied(req.Submitter_Name, req.Action_Type, reason))
	return req, nil
}

// Wait blocks until subscriber broadcasts started by Approve have finished.
func (s *ApprovalService) Wait() {
	s.broadcasts.Wait()
}

type selector interface {
	From(from ...interface{}) *goqu.SelectDataset
}

// unclaimable explains why a conditional update matched nothing.
func unclaimable(ctx context.Context, db selector, requestID int) error {
	count, err := db.From("pending_request").
		Where(goqu.C("pending_request_id").Eq(requestID)).
		CountContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending request %d: %w", requestID, err)
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return ErrAlreadyReviewed
}

// applySideEffect performs the change an approved request asks for. It
// returns the subscriber announcement to send after commit, if any.
func (s *ApprovalService) applySideEffect(ctx context.Context, tx *goqu.TxDatabase, req models.PendingRequest, now time.Time) (*Message, error) {
	data, err := req.Data()
	if err != nil {
		return nil, err
	}

	switch d := data.(type) {
	case *models.PrayerSubmissionData:
		email := d.Email
		if email == "" {
			email = req.Submitter_Email
		}
		prayer := models.Prayer{
			Name:            d.Name,
			Email:           strings.ToLower(strings.TrimSpace(email)),
			Title:           d.Title,
			Content:         d.Content,
			Is_Anonymous:    d.Is_Anonymous,
			Status:          models.PrayerStatusCurrent,
			Approval_Status: models.ApprovalStatusApproved,
		}
		var inserted models.Prayer
		if _, err := tx.Insert("prayer").Rows(prayer).Returning(goqu.Star()).Executor().ScanStructContext(ctx, &inserted); err != nil {
			return nil, fmt.Errorf("failed to create prayer: %w", err)
		}
		msg := s.templates.NewPrayer(inserted)
		return &msg, nil

	case *models.PrayerUpdateData:
		var prayer models.Prayer
		found, err := tx.From("prayer").Where(goqu.C("prayer_id").Eq(d.Prayer_ID)).ScanStructContext(ctx, &prayer)
		if err != nil {
			return nil, fmt.Errorf("failed to load prayer %d: %w", d.Prayer_ID, err)
		}
		if !found {
			return nil, fmt.Errorf("prayer %d no longer exists", d.Prayer_ID)
		}
		update := models.PrayerUpdate{
			Prayer_ID:       d.Prayer_ID,
			Content:         d.Content,
			Approval_Status: models.ApprovalStatusApproved,
		}
		var inserted models.PrayerUpdate
		if _, err := tx.Insert("prayer_update").Rows(update).Returning(goqu.Star()).Executor().ScanStructContext(ctx, &inserted); err != nil {
			return nil, fmt.Errorf("failed to add update to prayer %d: %w", d.Prayer_ID, err)
		}
		msg := s.templates.PrayerUpdated(prayer, inserted)
		return &msg, nil

	case *models.PrayerDeletionData:
		if _, err := tx.Delete("prayer_update").Where(goqu.C("prayer_id").Eq(d.Prayer_ID)).Executor().ExecContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to delete updates of prayer %d: %w", d.Prayer_ID, err)
		}
		return nil, execOne(ctx, tx.Delete("prayer").Where(goqu.C("prayer_id").Eq(d.Prayer_ID)).Executor(),
			fmt.Sprintf("prayer %d", d.Prayer_ID))

	case *models.StatusChangeData:
		return nil, execOne(ctx, tx.Update("prayer").
			Set(goqu.Record{"status": d.New_Status, "updated_at": now}).
			Where(goqu.C("prayer_id").Eq(d.Prayer_ID)).
			Executor(), fmt.Sprintf("prayer %d", d.Prayer_ID))

	case *models.UpdateDeletionData:
		return nil, execOne(ctx, tx.Delete("prayer_update").
			Where(
				goqu.C("prayer_update_id").Eq(d.Prayer_Update_ID),
				goqu.C("prayer_id").Eq(d.Prayer_ID),
			).
			Executor(), fmt.Sprintf("update %d of prayer %d", d.Prayer_Update_ID, d.Prayer_ID))

	case *models.PreferenceChangeData:
		active := *d.Receive_Notifications
		_, err := tx.Insert("subscriber").
			Rows(goqu.Record{
				"email":      strings.ToLower(strings.TrimSpace(d.Email)),
				"name":       d.Name,
				"is_active":  active,
				"updated_at": now,
			}).
			OnConflict(goqu.DoUpdate("email", goqu.Record{
				"name":       goqu.L("COALESCE(NULLIF(EXCLUDED.name, ''), subscriber.name)"),
				"is_active":  active,
				"updated_at": now,
			})).
			Executor().ExecContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to save preferences for %s: %w", d.Email, err)
		}
		return nil, nil
	}

	return nil, fmt.Errorf("%w: unsupported action type %s", models.ErrInvalidActionData, req.Action_Type)
}

// execOne runs a statement that must touch exactly one existing row.
func execOne(ctx context.Context, executor exec.QueryExecutor, what string) error {
	result, err := executor.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to change %s: %w", what, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to change %s: %w", what, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s no longer exists", what)
	}
	return nil
}

func (s *ApprovalService) notifySubmitter(ctx context.Context, req models.PendingRequest, msg Message) {
	if req.Submitter_Email == "" {
		return
	}
	msg.To = []string{req.Submitter_Email}
	if result := s.mailer.Send(ctx, msg); !result.OK() {
		zap.S().Warnw("decision email failed", "pendingRequestId", req.Pending_Request_ID, "error", result.Err())
	}
}

// broadcastToSubscribers mails msg to every active subscriber in the
// background. Large lists are paced by the dispatcher and can take minutes.
func (s *ApprovalService) broadcastToSubscribers(msg Message) {
	s.broadcasts.Add(1)
	go func() {
		defer s.broadcasts.Done()
		ctx := context.Background()

		var subscribers []models.Subscriber
		err := s.db.From("subscriber").
			Where(goqu.C("is_active").IsTrue()).
			ScanStructsContext(ctx, &subscribers)
		if err != nil {
			zap.S().Errorw("failed to load subscribers", "error", err)
			return
		}
		if len(subscribers) == 0 {
			return
		}

		msg.To = make([]string, len(subscribers))
		for i, sub := range subscribers {
			msg.To[i] = sub.Email
		}
		result := s.mailer.Send(ctx, msg)
		zap.S().Infow("subscriber broadcast finished", "subject", msg.Subject, "sent", result.Sent, "failed", len(result.Failures))
	}()
}
