package services

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	gocache "github.com/patrickmn/go-cache"

	"github.com/PrayerWall/models"
)

const adminConfigCacheKey = "admin_config"

// ConfigService reads and writes the single admin_config row. Reads are
// cached briefly; a write drops the cached copy so the next read sees it.
type ConfigService struct {
	db    *goqu.Database
	cache *gocache.Cache
	now   func() time.Time
}

func NewConfigService(db *goqu.Database, ttl time.Duration) *ConfigService {
	return &ConfigService{
		db:    db,
		cache: gocache.New(ttl, 2*ttl),
		now:   time.Now,
	}
}

// Get returns the current configuration, or the defaults when no
// administrator has saved one yet.
func (s *ConfigService) Get(ctx context.Context) (models.AdminConfig, error) {
	if cached, ok := s.cache.Get(adminConfigCacheKey); ok {
		return cached.(models.AdminConfig), nil
	}

	var cfg models.AdminConfig
	found, err := s.db.From("admin_config").
		Where(goqu.C("admin_config_id").Eq(models.AdminConfigID)).
		ScanStructContext(ctx, &cfg)
	if err != nil {
		return models.AdminConfig{}, fmt.Errorf("failed to load admin config: %w", err)
	}
	if !found {
		cfg = models.DefaultAdminConfig()
	}

	s.cache.SetDefault(adminConfigCacheKey, cfg)
	return cfg, nil
}

// Update validates and saves cfg as the configuration, recording who changed it.
func (s *ConfigService) Update(ctx context.Context, cfg models.AdminConfig, adminID int) (models.AdminConfig, error) {
	if err := cfg.Validate(); err != nil {
		return models.AdminConfig{}, err
	}

	now := s.now().UTC()
	values := goqu.Record{
		"require_email_verification":       cfg.Require_Email_Verification,
		"verification_code_length":         cfg.Verification_Code_Length,
		"verification_code_expiry_minutes": cfg.Verification_Code_Expiry_Minutes,
		"reminder_interval_days":           cfg.Reminder_Interval_Days,
		"auto_transition_days":             cfg.Auto_Transition_Days,
		"updated_by":                       adminID,
		"updated_at":                       now,
	}
	row := goqu.Record{"admin_config_id": models.AdminConfigID}
	for k, v := range values {
		row[k] = v
	}

	_, err := s.db.Insert("admin_config").
		Rows(row).
		OnConflict(goqu.DoUpdate("admin_config_id", values)).
		Executor().ExecContext(ctx)
	if err != nil {
		return models.AdminConfig{}, fmt.Errorf("failed to save admin config: %w", err)
	}
	s.Invalidate()

	cfg.Admin_Config_ID = models.AdminConfigID
	cfg.Updated_By = &adminID
	cfg.Updated_At = now
	return cfg, nil
}

func (s *ConfigService) Invalidate() {
	s.cache.Delete(adminConfigCacheKey)
}
