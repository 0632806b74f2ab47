package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/PrayerWall/initializers"
)

var errEmailUnavailable = errors.New("email service not initialized")

// Message is one email addressed to one or more recipients. Every recipient
// receives a separate copy.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

type RecipientFailure struct {
	Email string
	Err   error
}

// DispatchResult reports what happened to each recipient of a Message.
type DispatchResult struct {
	Sent     int
	Failures []RecipientFailure
}

func (r DispatchResult) OK() bool {
	return len(r.Failures) == 0
}

// Err folds the failures into one error, or nil when everything went out.
func (r DispatchResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Email, f.Err))
	}
	return errors.Join(errs...)
}

// Dispatcher is the notification boundary used by every service. Send never
// fails the caller; problems are reported in the result and logged.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) DispatchResult
}

type EmailService struct {
	sender    Sender
	batchSize int
	limiter   *rate.Limiter
}

var emailService *EmailService

// NewEmailService paces delivery to batchSize recipients per batchDelay
// across every caller of Send.
func NewEmailService(sender Sender, batchSize int, batchDelay time.Duration) *EmailService {
	if batchSize <= 0 {
		batchSize = 50
	}
	pace := rate.Inf
	if batchDelay > 0 {
		pace = rate.Limit(float64(batchSize) / batchDelay.Seconds())
	}
	return &EmailService{
		sender:    sender,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(pace, batchSize),
	}
}

// InitEmailService picks the provider named by EMAIL_PROVIDER. When the
// provider is not configured the service stays nil and sends are reported
// as failures.
func InitEmailService() {
	from := os.Getenv("EMAIL_FROM")
	var sender Sender

	switch provider := strings.ToLower(initializers.GetEnv("EMAIL_PROVIDER", "resend")); provider {
	case "resend":
		apiKey := os.Getenv("RESEND_API_KEY")
		if apiKey == "" {
			zap.S().Warn("RESEND_API_KEY not set. Email service will not be available.")
			return
		}
		sender = NewResendSender(apiKey, from)
	case "smtp":
		host := os.Getenv("SMTP_HOST")
		if host == "" {
			zap.S().Warn("SMTP_HOST not set. Email service will not be available.")
			return
		}
		sender = NewSMTPSender(host, initializers.GetEnvInt("SMTP_PORT", 587), os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS"), from)
	case "sendgrid":
		apiKey := os.Getenv("SENDGRID_API_KEY")
		if apiKey == "" {
			zap.S().Warn("SENDGRID_API_KEY not set. Email service will not be available.")
			return
		}
		sender = NewSendGridSender(apiKey, initializers.GetEnv("SITE_NAME", "PrayerWall"), from)
	default:
		zap.S().Warnw("unknown EMAIL_PROVIDER. Email service will not be available.", "provider", provider)
		return
	}

	emailService = NewEmailService(
		sender,
		initializers.GetEnvInt("EMAIL_BATCH_SIZE", 50),
		initializers.GetEnvDuration("EMAIL_BATCH_DELAY", time.Second),
	)

	zap.S().Infow("Email service initialized", "provider", os.Getenv("EMAIL_PROVIDER"))
}

func GetEmailService() *EmailService {
	return emailService
}

// Send delivers msg to every recipient in batches of batchSize, waiting on the
// shared limiter before each batch. A failed recipient never stops the
// remaining ones.
func (s *EmailService) Send(ctx context.Context, msg Message) DispatchResult {
	recipients := normalizeRecipients(msg.To)
	var result DispatchResult

	if s == nil || s.sender == nil {
		for _, to := range recipients {
			result.Failures = append(result.Failures, RecipientFailure{Email: to, Err: errEmailUnavailable})
		}
		logDispatch(msg.Subject, result)
		return result
	}

	for start := 0; start < len(recipients); start += s.batchSize {
		end := min(start+s.batchSize, len(recipients))
		if err := s.limiter.WaitN(ctx, end-start); err != nil {
			for _, to := range recipients[start:] {
				result.Failures = append(result.Failures, RecipientFailure{Email: to, Err: err})
			}
			break
		}

		for _, to := range recipients[start:end] {
			if err := s.sender.Send(ctx, to, msg.Subject, msg.HTML, msg.Text); err != nil {
				result.Failures = append(result.Failures, RecipientFailure{Email: to, Err: err})
				continue
			}
			result.Sent++
		}
	}

	logDispatch(msg.Subject, result)
	return result
}

func logDispatch(subject string, result DispatchResult) {
	notificationsTotal.WithLabelValues("sent").Add(float64(result.Sent))
	notificationsTotal.WithLabelValues("failed").Add(float64(len(result.Failures)))

	for _, f := range result.Failures {
		zap.S().Warnw("Failed to send email", "to", f.Email, "subject", subject, "error", f.Err)
	}
	if result.Sent > 0 {
		zap.S().Infow("Sent email", "subject", subject, "recipients", result.Sent)
	}
}

func normalizeRecipients(to []string) []string {
	seen := make(map[string]bool, len(to))
	out := make([]string, 0, len(to))
	for _, addr := range to {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}
