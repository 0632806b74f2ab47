package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/PrayerWall/models"
)

const (
	DefaultScanSchedule = "0 6 * * *"
	codeCleanupSchedule = "@hourly"
	scheduledJobTimeout = 30 * time.Minute
)

type ConfigSource interface {
	Get(ctx context.Context) (models.AdminConfig, error)
}

type ScheduledScanner interface {
	RunScheduled(ctx context.Context, cfg models.AdminConfig) (ScanSummary, error)
}

type CodeCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Scheduler triggers the staleness scans once per scanSpec and sweeps expired
// verification codes every hour. Runs of the same job never overlap.
type Scheduler struct {
	cron     *cron.Cron
	configs  ConfigSource
	scanner  ScheduledScanner
	codes    CodeCleaner
	scanSpec string
}

func NewScheduler(configs ConfigSource, scanner ScheduledScanner, codes CodeCleaner, scanSpec string) *Scheduler {
	if scanSpec == "" {
		scanSpec = DefaultScanSchedule
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		configs:  configs,
		scanner:  scanner,
		codes:    codes,
		scanSpec: scanSpec,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.scanSpec, s.RunScans); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(codeCleanupSchedule, s.CleanupCodes); err != nil {
		return err
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "scanSchedule", s.scanSpec)
	return nil
}

// Stop halts the schedule and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunScans loads the current thresholds and runs both staleness scans.
func (s *Scheduler) RunScans() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledJobTimeout)
	defer cancel()

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		zap.S().Errorw("scheduled scan skipped: could not load admin config", "error", err)
		return
	}
	if _, err := s.scanner.RunScheduled(ctx, cfg); err != nil {
		zap.S().Errorw("scheduled scan failed", "error", err)
	}
}

func (s *Scheduler) CleanupCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledJobTimeout)
	defer cancel()

	deleted, err := s.codes.CleanupExpired(ctx)
	if err != nil {
		zap.S().Errorw("verification code cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("expired verification codes removed", "count", deleted)
	}
}
