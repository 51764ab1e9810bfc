package db

import (
	"strings"

	"github.com/terraincognita07/symptomcy/internal/models"
	"gorm.io/gorm"
)

type SymptomRepository struct {
	database *gorm.DB
}

func NewSymptomRepository(database *gorm.DB) *SymptomRepository {
	return &SymptomRepository{database: database}
}

func (repo *SymptomRepository) List() ([]models.SymptomType, error) {
	symptoms := make([]models.SymptomType, 0)
	if err := repo.database.Order("id ASC").Find(&symptoms).Error; err != nil {
		return nil, err
	}
	return symptoms, nil
}

func (repo *SymptomRepository) FindByName(name string) (models.SymptomType, error) {
	symptom := models.SymptomType{}
	if err := repo.database.Where("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))).First(&symptom).Error; err != nil {
		return models.SymptomType{}, err
	}
	return symptom, nil
}

func (repo *SymptomRepository) Create(symptom *models.SymptomType) error {
	return repo.database.Create(symptom).Error
}

func (repo *SymptomRepository) CountBuiltin() (int64, error) {
	var count int64
	if err := repo.database.Model(&models.SymptomType{}).Where("is_builtin = ?", true).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// EnsureBuiltins inserts any default symptom type missing by name and reports how many it added.
func (repo *SymptomRepository) EnsureBuiltins() (int, error) {
	existing, err := repo.List()
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, symptom := range existing {
		known[strings.ToLower(symptom.Name)] = true
	}

	missing := make([]models.SymptomType, 0)
	for _, builtin := range models.DefaultBuiltinSymptoms() {
		if known[strings.ToLower(builtin.Name)] {
			continue
		}
		missing = append(missing, models.SymptomType{
			Name:      builtin.Name,
			Icon:      builtin.Icon,
			Color:     builtin.Color,
			Framing:   builtin.Framing,
			IsBuiltin: true,
		})
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := repo.database.Create(&missing).Error; err != nil {
		return 0, err
	}
	return len(missing), nil
}
