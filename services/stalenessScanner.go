package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PrayerWall/models"
)

const day = 24 * time.Hour

// StalenessScanner finds prayers that have gone quiet. One scan emails the
// submitter a reminder; the other moves old current prayers to ongoing.
type StalenessScanner struct {
	db          *goqu.Database
	mailer      Dispatcher
	templates   EmailTemplates
	now         func() time.Time
	concurrency int
}

func NewStalenessScanner(db *goqu.Database, mailer Dispatcher, templates EmailTemplates) *StalenessScanner {
	return &StalenessScanner{
		db:          db,
		mailer:      mailer,
		templates:   templates,
		now:         time.Now,
		concurrency: 4,
	}
}

// ScanSummary is what one scheduled run did.
type ScanSummary struct {
	Reminded       []models.Prayer `json:"reminded"`
	Transitioned   []models.Prayer `json:"transitioned"`
	ReminderDays   int             `json:"reminderIntervalDays"`
	TransitionDays int             `json:"autoTransitionDays"`
}

// ScanForReminders returns the approved current or ongoing prayers whose last
// activity is older than intervalDays and emails each submitter a reminder.
// A prayer's last activity is the later of its creation and its newest update.
// An interval of zero disables the scan.
func (s *StalenessScanner) ScanForReminders(ctx context.Context, intervalDays int) ([]models.Prayer, error) {
	if intervalDays <= 0 {
		return []models.Prayer{}, nil
	}
	now := s.now().UTC()
	cutoff := now.Add(-time.Duration(intervalDays) * day)

	candidates, err := s.reminderCandidates(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	due := DueForReminder(candidates, cutoff)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, p := range due {
		if p.Email == "" {
			continue
		}
		g.Go(func() error {
			s.sendReminder(ctx, p, now)
			return nil
		})
	}
	_ = g.Wait()

	prayers := make([]models.Prayer, len(due))
	for i, p := range due {
		prayers[i] = p.Prayer
	}
	scanResultsTotal.WithLabelValues("reminder").Add(float64(len(prayers)))
	return prayers, nil
}

// DueForReminder keeps the prayers whose last activity is strictly before
// cutoff.
func DueForReminder(candidates []models.PrayerActivity, cutoff time.Time) []models.PrayerActivity {
	due := make([]models.PrayerActivity, 0, len(candidates))
	for _, p := range candidates {
		if p.LastActivity().Before(cutoff) {
			due = append(due, p)
		}
	}
	return due
}

func (s *StalenessScanner) reminderCandidates(ctx context.Context, cutoff time.Time) ([]models.PrayerActivity, error) {
	latest := s.db.From("prayer_update").
		Select(goqu.C("prayer_id"), goqu.MAX("created_at").As("latest_update")).
		GroupBy(goqu.C("prayer_id"))

	candidates := []models.PrayerActivity{}
	err := s.db.From("prayer").
		Select(goqu.T("prayer").All(), goqu.I("latest.latest_update")).
		LeftJoin(latest.As("latest"), goqu.On(goqu.I("latest.prayer_id").Eq(goqu.I("prayer.prayer_id")))).
		Where(
			goqu.I("prayer.approval_status").Eq(models.ApprovalStatusApproved),
			goqu.I("prayer.status").In(models.PrayerStatusCurrent, models.PrayerStatusOngoing),
			goqu.I("prayer.created_at").Lt(cutoff),
			goqu.Or(
				goqu.I("latest.latest_update").IsNull(),
				goqu.I("latest.latest_update").Lt(cutoff),
			),
		).
		Order(goqu.I("prayer.prayer_id").Asc()).
		ScanStructsContext(ctx, &candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", err)
	}
	return candidates, nil
}

// sendReminder emails one submitter and records the send. The timestamp is
// only written when the email went out.
func (s *StalenessScanner) sendReminder(ctx context.Context, p models.PrayerActivity, now time.Time) {
	msg := s.templates.Reminder(p.Prayer, p.LastActivity())
	msg.To = []string{p.Email}
	if result := s.mailer.Send(ctx, msg); !result.OK() {
		zap.S().Warnw("reminder email failed", "prayerId", p.Prayer_ID, "error", result.Err())
		return
	}

	_, err := s.db.Update("prayer").
		Set(goqu.Record{"last_reminder_sent": now}).
		Where(goqu.C("prayer_id").Eq(p.Prayer_ID)).
		Executor().ExecContext(ctx)
	if err != nil {
		zap.S().Errorw("failed to record reminder", "prayerId", p.Prayer_ID, "error", err)
	}
}

// ScanForAutoTransition moves approved prayers that have been current for
// more than days to ongoing and returns the rows it changed. Only the
// creation time counts; updates do not reset the clock. Zero disables it.
func (s *StalenessScanner) ScanForAutoTransition(ctx context.Context, days int) ([]models.Prayer, error) {
	if days <= 0 {
		return []models.Prayer{}, nil
	}
	now := s.now().UTC()
	cutoff := now.Add(-time.Duration(days) * day)

	prayers := []models.Prayer{}
	err := s.db.Update("prayer").
		Set(goqu.Record{"status": models.PrayerStatusOngoing, "updated_at": now}).
		Where(
			goqu.C("approval_status").Eq(models.ApprovalStatusApproved),
			goqu.C("status").Eq(models.PrayerStatusCurrent),
			goqu.C("created_at").Lt(cutoff),
		).
		Returning(goqu.Star()).
		Executor().ScanStructsContext(ctx, &prayers)
	if err != nil {
		return nil, fmt.Errorf("failed to move prayers to ongoing: %w", err)
	}
	sort.Slice(prayers, func(i, j int) bool { return prayers[i].Prayer_ID < prayers[j].Prayer_ID })

	scanResultsTotal.WithLabelValues("auto_transition").Add(float64(len(prayers)))
	return prayers, nil
}

// RunScheduled runs both scans with the thresholds in cfg. A failure in one
// scan does not stop the other.
func (s *StalenessScanner) RunScheduled(ctx context.Context, cfg models.AdminConfig) (ScanSummary, error) {
	summary := ScanSummary{
		ReminderDays:   cfg.Reminder_Interval_Days,
		TransitionDays: cfg.Auto_Transition_Days,
	}

	reminded, remindErr := s.ScanForReminders(ctx, cfg.Reminder_Interval_Days)
	if remindErr == nil {
		summary.Reminded = reminded
	}
	transitioned, transitionErr := s.ScanForAutoTransition(ctx, cfg.Auto_Transition_Days)
	if transitionErr == nil {
		summary.Transitioned = transitioned
	}

	zap.S().Infow("staleness scan finished",
		"reminded", len(summary.Reminded),
		"transitioned", len(summary.Transitioned),
	)
	return summary, errors.Join(remindErr, transitionErr)
}
