package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/symptomcy/internal/models"
	"gorm.io/gorm"
)

const effectiveAtColumn = "COALESCE(backdated_at, created_at)"

type SymptomEntryRepository struct {
	database *gorm.DB
}

func NewSymptomEntryRepository(database *gorm.DB) *SymptomEntryRepository {
	return &SymptomEntryRepository{database: database}
}

// ListByRange returns entries whose effective time lies in [from, to), oldest first.
func (repo *SymptomEntryRepository) ListByRange(from time.Time, to time.Time) ([]models.SymptomEntry, error) {
	entries := make([]models.SymptomEntry, 0)
	if err := repo.database.
		Where(effectiveAtColumn+" >= ? AND "+effectiveAtColumn+" < ?", from.UTC(), to.UTC()).
		Order(effectiveAtColumn + " ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *SymptomEntryRepository) Create(entry *models.SymptomEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	if entry.BackdatedAt != nil {
		backdated := entry.BackdatedAt.UTC()
		entry.BackdatedAt = &backdated
	}
	return repo.database.Create(entry).Error
}

func (repo *SymptomEntryRepository) CreateBatch(entries []models.SymptomEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return repo.database.Transaction(func(tx *gorm.DB) error {
		txRepo := &SymptomEntryRepository{database: tx}
		for index := range entries {
			if err := txRepo.Create(&entries[index]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *SymptomEntryRepository) Count() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.SymptomEntry{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
