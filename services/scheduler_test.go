package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/models"
)

type fakeConfigSource struct {
	cfg models.AdminConfig
	err error
}

func (f fakeConfigSource) Get(context.Context) (models.AdminConfig, error) {
	return f.cfg, f.err
}

type fakeScanner struct {
	runs []models.AdminConfig
}

func (f *fakeScanner) RunScheduled(_ context.Context, cfg models.AdminConfig) (ScanSummary, error) {
	f.runs = append(f.runs, cfg)
	return ScanSummary{}, nil
}

type fakeCleaner struct {
	calls int
}

func (f *fakeCleaner) CleanupExpired(context.Context) (int64, error) {
	f.calls++
	return 2, nil
}

func TestSchedulerRunScans(t *testing.T) {
	cfg := models.DefaultAdminConfig()
	cfg.Reminder_Interval_Days = 14
	scanner := &fakeScanner{}

	s := NewScheduler(fakeConfigSource{cfg: cfg}, scanner, &fakeCleaner{}, "")
	s.RunScans()

	require.Len(t, scanner.runs, 1)
	assert.Equal(t, 14, scanner.runs[0].Reminder_Interval_Days)
}

func TestSchedulerSkipsScanWithoutConfig(t *testing.T) {
	scanner := &fakeScanner{}

	s := NewScheduler(fakeConfigSource{err: errors.New("database is down")}, scanner, &fakeCleaner{}, "")
	s.RunScans()

	assert.Empty(t, scanner.runs)
}

func TestSchedulerCleanupCodes(t *testing.T) {
	cleaner := &fakeCleaner{}

	s := NewScheduler(fakeConfigSource{}, &fakeScanner{}, cleaner, "")
	s.CleanupCodes()

	assert.Equal(t, 1, cleaner.calls)
}

func TestSchedulerStart(t *testing.T) {
	s := NewScheduler(fakeConfigSource{}, &fakeScanner{}, &fakeCleaner{}, "30 5 * * *")
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 2)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(fakeConfigSource{}, &fakeScanner{}, &fakeCleaner{}, "every morning")
	assert.Error(t, s.Start())
}
