package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrayerWall/models"
)

const (
	minCodeLength = 4
	maxCodeLength = 8
	minCodeTTL    = 5
	maxCodeTTL    = 60
)

// VerificationService stores single-use numeric codes that prove a submitter
// controls the email address on a request. Each code carries the request
// payload so nothing is queued until the code comes back.
type VerificationService struct {
	db        *goqu.Database
	mailer    Dispatcher
	templates EmailTemplates
	now       func() time.Time
}

func NewVerificationService(db *goqu.Database, mailer Dispatcher, templates EmailTemplates) *VerificationService {
	return &VerificationService{
		db:        db,
		mailer:    mailer,
		templates: templates,
		now:       time.Now,
	}
}

// Issue stores a fresh code for email and mails it. A failed email does not
// undo the stored code; the submitter can ask for another one.
func (s *VerificationService) Issue(ctx context.Context, email, submitterName string, data models.ActionData, length, ttlMinutes int) (models.VerificationCode, error) {
	if length < minCodeLength || length > maxCodeLength {
		return models.VerificationCode{}, fmt.Errorf("%w: code length %d", ErrInvalidConfig, length)
	}
	if ttlMinutes < minCodeTTL || ttlMinutes > maxCodeTTL {
		return models.VerificationCode{}, fmt.Errorf("%w: code expiry %d minutes", ErrInvalidConfig, ttlMinutes)
	}

	raw, err := models.EncodeActionData(data)
	if err != nil {
		return models.VerificationCode{}, err
	}

	code, err := generateNumericCode(length)
	if err != nil {
		return models.VerificationCode{}, fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := s.now().UTC()
	vc := models.VerificationCode{
		Verification_Code_ID: uuid.NewString(),
		Email:                strings.ToLower(strings.TrimSpace(email)),
		Code:                 code,
		Action_Type:          data.ActionType(),
		Action_Data:          raw,
		Submitter_Name:       strings.TrimSpace(submitterName),
		Created_At:           now,
		Expires_At:           now.Add(time.Duration(ttlMinutes) * time.Minute),
	}

	_, err = s.db.Insert("verification_code").Rows(vc).Executor().ExecContext(ctx)
	if err != nil {
		return models.VerificationCode{}, fmt.Errorf("failed to store verification code: %w", err)
	}

	msg := s.templates.VerificationCode(vc.Submitter_Name, code, vc.Action_Type, ttlMinutes)
	msg.To = []string{vc.Email}
	if result := s.mailer.Send(ctx, msg); !result.OK() {
		zap.S().Warnw("verification code stored but email failed",
			"codeId", vc.Verification_Code_ID,
			"actionType", vc.Action_Type,
			"error", result.Err(),
		)
	}

	return vc, nil
}

// Validate consumes the code identified by codeID. A code that matched is
// deleted, so a second Validate with the same id reports ErrCodeNotFound.
func (s *VerificationService) Validate(ctx context.Context, codeID, submitted string) (models.VerificationCode, error) {
	return s.Redeem(ctx, codeID, submitted, nil)
}

// Redeem checks submitted against the stored code and deletes it. When use is
// not nil it runs in the same transaction after the delete; if it fails the
// code is kept and can be redeemed again. Expiry is checked before the digits.
func (s *VerificationService) Redeem(ctx context.Context, codeID, submitted string, use func(tx *goqu.TxDatabase, vc models.VerificationCode) error) (models.VerificationCode, error) {
	if _, err := uuid.Parse(codeID); err != nil {
		verificationsTotal.WithLabelValues("not_found").Inc()
		return models.VerificationCode{}, ErrCodeNotFound
	}

	var vc models.VerificationCode
	err := s.db.WithTx(func(tx *goqu.TxDatabase) error {
		found, err := tx.From("verification_code").
			Where(goqu.C("verification_code_id").Eq(codeID)).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &vc)
		if err != nil {
			return fmt.Errorf("failed to load verification code: %w", err)
		}
		if !found {
			return ErrCodeNotFound
		}

		if s.now().After(vc.Expires_At) {
			return ErrCodeExpired
		}
		if subtle.ConstantTimeCompare([]byte(vc.Code), []byte(strings.TrimSpace(submitted))) != 1 {
			return ErrCodeMismatch
		}

		result, err := tx.Delete("verification_code").
			Where(goqu.C("verification_code_id").Eq(codeID)).
			Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to consume verification code: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to consume verification code: %w", err)
		}
		if rows == 0 {
			return ErrCodeNotFound
		}

		if use != nil {
			return use(tx, vc)
		}
		return nil
	})

	switch {
	case err == nil:
		verificationsTotal.WithLabelValues("ok").Inc()
		return vc, nil
	case errors.Is(err, ErrCodeNotFound):
		verificationsTotal.WithLabelValues("not_found").Inc()
	case errors.Is(err, ErrCodeExpired):
		verificationsTotal.WithLabelValues("expired").Inc()
	case errors.Is(err, ErrCodeMismatch):
		verificationsTotal.WithLabelValues("mismatch").Inc()
	}
	return models.VerificationCode{}, err
}

// CleanupExpired deletes codes past their expiry and returns how many went.
// A code is still valid at the instant it expires.
func (s *VerificationService) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Delete("verification_code").
		Where(goqu.C("expires_at").Lt(s.now().UTC())).
		Executor().ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", err)
	}
	return result.RowsAffected()
}

// generateNumericCode returns a uniformly random decimal string of exactly
// length digits with no leading zero.
func generateNumericCode(length int) (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, low).String(), nil
}
