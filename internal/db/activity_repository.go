package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/symptomcy/internal/models"
	"gorm.io/gorm"
)

type ActivityRepository struct {
	database *gorm.DB
}

func NewActivityRepository(database *gorm.DB) *ActivityRepository {
	return &ActivityRepository{database: database}
}

func (repo *ActivityRepository) ListByRange(from time.Time, to time.Time) ([]models.ActivityEvent, error) {
	events := make([]models.ActivityEvent, 0)
	if err := repo.database.
		Where("COALESCE(backdated_at, occurred_at) >= ? AND COALESCE(backdated_at, occurred_at) < ?", from.UTC(), to.UTC()).
		Order("COALESCE(backdated_at, occurred_at) ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (repo *ActivityRepository) Create(event *models.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Category == "" {
		event.Category = "other"
	}
	event.OccurredAt = event.OccurredAt.UTC()
	if event.BackdatedAt != nil {
		backdated := event.BackdatedAt.UTC()
		event.BackdatedAt = &backdated
	}
	return repo.database.Create(event).Error
}
