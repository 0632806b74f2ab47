package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/PrayerWall/models"
)

var errPushUnavailable = errors.New("FCM client not initialized")

// PushSender is the part of the FCM client the service uses.
type PushSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// PushNotificationService alerts reviewers on their devices when a new request
// lands in the queue.
type PushNotificationService struct {
	db        *goqu.Database
	fcmClient PushSender
}

type NotificationPayload struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sound    string            `json:"sound,omitempty"`
	Badge    string            `json:"badge,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

var pushService *PushNotificationService

func NewPushNotificationService(db *goqu.Database, client PushSender) *PushNotificationService {
	return &PushNotificationService{db: db, fcmClient: client}
}

// InitPushNotificationService connects to Firebase using the service account
// file in FIREBASE_SERVICE_ACCOUNT_PATH, or application default credentials
// when the variable is empty. Failure leaves push alerts disabled.
func InitPushNotificationService(db *goqu.Database) {
	pushService = &PushNotificationService{db: db}

	var opts []option.ClientOption
	if path := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		zap.S().Warnw("push alerts disabled: failed to initialize Firebase app", "error", err)
		return
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		zap.S().Warnw("push alerts disabled: failed to get Firebase messaging client", "error", err)
		return
	}
	pushService.fcmClient = client

	zap.S().Info("push notification service initialized with FCM")
}

func GetPushNotificationService() *PushNotificationService {
	return pushService
}

// RegisterToken stores or refreshes a device token for an administrator.
func (s *PushNotificationService) RegisterToken(ctx context.Context, adminUserID int, req models.PushTokenRequest) error {
	if s == nil || s.db == nil {
		return errPushUnavailable
	}

	_, err := s.db.Insert("admin_push_token").
		Rows(goqu.Record{
			"admin_user_id": adminUserID,
			"push_token":    req.PushToken,
			"platform":      req.Platform,
			"updated_at":    time.Now().UTC(),
		}).
		OnConflict(goqu.DoUpdate("push_token", goqu.Record{
			"admin_user_id": adminUserID,
			"platform":      req.Platform,
			"updated_at":    time.Now().UTC(),
		})).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to store push token for admin %d: %w", adminUserID, err)
	}
	return nil
}

// NotifyAdmins sends payload to every device registered by an active
// administrator. Individual token failures are logged, not returned.
func (s *PushNotificationService) NotifyAdmins(ctx context.Context, payload NotificationPayload) error {
	if s == nil || s.fcmClient == nil {
		return errPushUnavailable
	}

	var tokens []models.AdminPushToken
	err := s.db.From(goqu.T("admin_push_token").As("t")).
		Select(goqu.T("t").All()).
		Join(goqu.T("admin_user").As("u"), goqu.On(goqu.I("u.admin_user_id").Eq(goqu.I("t.admin_user_id")))).
		Where(goqu.I("u.is_active").IsTrue()).
		ScanStructsContext(ctx, &tokens)
	if err != nil {
		return fmt.Errorf("failed to load admin push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	message := buildMulticast(tokens, payload)
	response, err := s.fcmClient.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send FCM multicast: %w", err)
	}

	for i, resp := range response.Responses {
		if !resp.Success {
			zap.S().Warnw("push alert failed", "adminUserId", tokens[i].Admin_User_ID, "error", resp.Error)
		}
	}
	zap.S().Infow("push alert sent", "success", response.SuccessCount, "failure", response.FailureCount)
	return nil
}

// NewRequestAlert is the payload sent to reviewers for a freshly queued request.
func NewRequestAlert(req models.PendingRequest) NotificationPayload {
	return NotificationPayload{
		Title:    "New " + req.Action_Type.Label(),
		Body:     fmt.Sprintf("%s is waiting for review.", displayName(req.Submitter_Name)),
		Priority: "high",
		Sound:    "default",
		Data: map[string]string{
			"type":             "pending_request",
			"pendingRequestId": strconv.Itoa(req.Pending_Request_ID),
			"actionType":       string(req.Action_Type),
		},
	}
}

func buildMulticast(tokens []models.AdminPushToken, payload NotificationPayload) *messaging.MulticastMessage {
	message := &messaging.MulticastMessage{
		Tokens: make([]string, len(tokens)),
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: payload.Title,
						Body:  payload.Body,
					},
					Sound: payload.Sound,
				},
			},
		},
		Android: &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Title: payload.Title,
				Body:  payload.Body,
				Sound: payload.Sound,
			},
		},
	}
	for i, t := range tokens {
		message.Tokens[i] = t.Push_Token
	}

	if payload.Badge != "" {
		if badge, err := strconv.Atoi(payload.Badge); err == nil {
			message.APNS.Payload.Aps.Badge = &badge
		}
	}
	if payload.Priority == "high" {
		message.APNS.Headers = map[string]string{"apns-priority": "10"}
		message.Android.Priority = "high"
	}
	return message
}

func displayName(name string) string {
	if name == "" {
		return "Someone"
	}
	return name
}
