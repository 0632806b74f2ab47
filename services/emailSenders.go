package services

import (
	"context"
	"crypto/tls"
	"fmt"

	gomail "github.com/go-mail/mail"
	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Sender delivers a single email to a single recipient through one provider.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
		Text:    textBody,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}

	zap.S().Debugw("email accepted by resend", "to", to, "emailId", sent.Id)
	return nil
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	d := gomail.NewDialer(host, port, user, pass)
	d.TLSConfig = &tls.Config{ServerName: host}
	if port == 465 {
		d.SSL = true
	}
	return &SMTPSender{dialer: d, from: from}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if textBody != "" {
		m.SetBody("text/plain", textBody)
		m.AddAlternative("text/html", htmlBody)
	} else {
		m.SetBody("text/html", htmlBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

type SendGridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	message := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail("", to), textBody, htmlBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}
