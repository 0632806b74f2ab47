package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"

	"github.com/PrayerWall/models"
)

// AdminAlerter is told about every request that enters the queue.
type AdminAlerter interface {
	NotifyAdmins(ctx context.Context, payload NotificationPayload) error
}

// PendingRequestService is the holding area for requests awaiting review.
type PendingRequestService struct {
	db     *goqu.Database
	alerts AdminAlerter

	alerting sync.WaitGroup
}

func NewPendingRequestService(db *goqu.Database, alerts AdminAlerter) *PendingRequestService {
	return &PendingRequestService{db: db, alerts: alerts}
}

type inserter interface {
	Insert(table interface{}) *goqu.InsertDataset
}

// Enqueue stores a new pending request and returns it with its assigned id.
func (s *PendingRequestService) Enqueue(ctx context.Context, data models.ActionData, submitterEmail, submitterName string) (models.PendingRequest, error) {
	req, err := insertRequest(ctx, s.db, data, submitterEmail, submitterName)
	if err != nil {
		return models.PendingRequest{}, err
	}
	s.Announce(req)
	return req, nil
}

// EnqueueTx stores a new pending request inside tx. Admins are not alerted;
// call Announce once tx has committed.
func (s *PendingRequestService) EnqueueTx(ctx context.Context, tx *goqu.TxDatabase, data models.ActionData, submitterEmail, submitterName string) (models.PendingRequest, error) {
	return insertRequest(ctx, tx, data, submitterEmail, submitterName)
}

func insertRequest(ctx context.Context, db inserter, data models.ActionData, submitterEmail, submitterName string) (models.PendingRequest, error) {
	if err := models.ValidateActionData(data); err != nil {
		return models.PendingRequest{}, err
	}
	raw, err := models.EncodeActionData(data)
	if err != nil {
		return models.PendingRequest{}, err
	}

	req := models.PendingRequest{
		Action_Type:     data.ActionType(),
		Action_Data:     raw,
		Submitter_Email: strings.ToLower(strings.TrimSpace(submitterEmail)),
		Submitter_Name:  strings.TrimSpace(submitterName),
		Approval_Status: models.ApprovalStatusPending,
	}

	var inserted models.PendingRequest
	_, err = db.Insert("pending_request").
		Rows(req).
		Returning(goqu.Star()).
		Executor().ScanStructContext(ctx, &inserted)
	if err != nil {
		return models.PendingRequest{}, fmt.Errorf("failed to enqueue %s request: %w", req.Action_Type, err)
	}
	return inserted, nil
}

// Announce pushes a new-request alert to reviewers in the background.
func (s *PendingRequestService) Announce(req models.PendingRequest) {
	if s.alerts == nil {
		return
	}
	s.alerting.Add(1)
	go func() {
		defer s.alerting.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.alerts.NotifyAdmins(ctx, NewRequestAlert(req)); err != nil {
			zap.S().Debugw("push alert skipped", "pendingRequestId", req.Pending_Request_ID, "error", err)
		}
	}()
}

// Wait blocks until alerts started by Enqueue and Announce have finished.
func (s *PendingRequestService) Wait() {
	s.alerting.Wait()
}

// List returns requests with the given approval status, newest first,
// optionally narrowed to one action type.
func (s *PendingRequestService) List(ctx context.Context, status string, actionType *models.ActionType) ([]models.PendingRequest, error) {
	if !models.IsApprovalStatus(status) {
		return nil, fmt.Errorf("unknown approval status %q", status)
	}

	query := s.db.From("pending_request").
		Where(goqu.C("approval_status").Eq(status))
	if actionType != nil {
		query = query.Where(goqu.C("action_type").Eq(string(*actionType)))
	}

	requests := []models.PendingRequest{}
	err := query.Order(goqu.C("created_at").Desc(), goqu.C("pending_request_id").Desc()).
		ScanStructsContext(ctx, &requests)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s requests: %w", status, err)
	}
	return requests, nil
}

func (s *PendingRequestService) ListPending(ctx context.Context, actionType *models.ActionType) ([]models.PendingRequest, error) {
	return s.List(ctx, models.ApprovalStatusPending, actionType)
}

func (s *PendingRequestService) ListDenied(ctx context.Context, actionType *models.ActionType) ([]models.PendingRequest, error) {
	return s.List(ctx, models.ApprovalStatusDenied, actionType)
}

func (s *PendingRequestService) Get(ctx context.Context, requestID int) (models.PendingRequest, error) {
	var req models.PendingRequest
	found, err := s.db.From("pending_request").
		Where(goqu.C("pending_request_id").Eq(requestID)).
		ScanStructContext(ctx, &req)
	if err != nil {
		return models.PendingRequest{}, fmt.Errorf("failed to load pending request %d: %w", requestID, err)
	}
	if !found {
		return models.PendingRequest{}, ErrRequestNotFound
	}
	return req, nil
}

// CountByStatus returns how many requests of each action type have the given
// status. Every action type is present in the result, zero when none match.
func (s *PendingRequestService) CountByStatus(ctx context.Context, status string) (map[models.ActionType]int, error) {
	if !models.IsApprovalStatus(status) {
		return nil, fmt.Errorf("unknown approval status %q", status)
	}

	var rows []struct {
		Action_Type string `db:"action_type"`
		Total       int    `db:"total"`
	}
	err := s.db.From("pending_request").
		Select(goqu.C("action_type"), goqu.COUNT("*").As("total")).
		Where(goqu.C("approval_status").Eq(status)).
		GroupBy(goqu.C("action_type")).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s requests: %w", status, err)
	}

	counts := make(map[models.ActionType]int, len(models.AllActionTypes))
	for _, t := range models.AllActionTypes {
		counts[t] = 0
	}
	for _, row := range rows {
		t, err := models.ParseActionType(row.Action_Type)
		if err != nil {
			zap.S().Warnw("ignoring requests with unknown action type", "actionType", row.Action_Type, "count", row.Total)
			continue
		}
		counts[t] = row.Total
	}
	return counts, nil
}
