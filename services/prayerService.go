package services

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/PrayerWall/models"
)

// PrayerService serves the public prayer wall. Only approved prayers and
// updates are ever returned, with private fields removed.
type PrayerService struct {
	db *goqu.Database
}

func NewPrayerService(db *goqu.Database) *PrayerService {
	return &PrayerService{db: db}
}

// List returns approved prayers, newest first, optionally limited to one status.
func (s *PrayerService) List(ctx context.Context, status string) ([]models.Prayer, error) {
	query := s.db.From("prayer").
		Where(goqu.C("approval_status").Eq(models.ApprovalStatusApproved))
	if status != "" {
		query = query.Where(goqu.C("status").Eq(status))
	}

	prayers := []models.Prayer{}
	if err := query.Order(goqu.C("created_at").Desc()).ScanStructsContext(ctx, &prayers); err != nil {
		return nil, fmt.Errorf("failed to list prayers: %w", err)
	}
	for i := range prayers {
		prayers[i] = prayers[i].Public()
	}
	return prayers, nil
}

// Get returns one approved prayer with its approved updates, oldest first.
func (s *PrayerService) Get(ctx context.Context, prayerID int) (models.PrayerWithUpdates, error) {
	var prayer models.Prayer
	found, err := s.db.From("prayer").
		Where(
			goqu.C("prayer_id").Eq(prayerID),
			goqu.C("approval_status").Eq(models.ApprovalStatusApproved),
		).
		ScanStructContext(ctx, &prayer)
	if err != nil {
		return models.PrayerWithUpdates{}, fmt.Errorf("failed to load prayer %d: %w", prayerID, err)
	}
	if !found {
		return models.PrayerWithUpdates{}, ErrPrayerNotFound
	}

	updates := []models.PrayerUpdate{}
	err = s.db.From("prayer_update").
		Where(
			goqu.C("prayer_id").Eq(prayerID),
			goqu.C("approval_status").Eq(models.ApprovalStatusApproved),
		).
		Order(goqu.C("created_at").Asc()).
		ScanStructsContext(ctx, &updates)
	if err != nil {
		return models.PrayerWithUpdates{}, fmt.Errorf("failed to load updates for prayer %d: %w", prayerID, err)
	}

	return models.PrayerWithUpdates{Prayer: prayer.Public(), Updates: updates}, nil
}
