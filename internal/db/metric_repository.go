package db

import (
	"github.com/terraincognita07/symptomcy/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricRepository persists baselines and the mirrored per-day metric cache.
type MetricRepository struct {
	database *gorm.DB
}

func NewMetricRepository(database *gorm.DB) *MetricRepository {
	return &MetricRepository{database: database}
}

func (repo *MetricRepository) ListBaselines() ([]models.MetricBaseline, error) {
	baselines := make([]models.MetricBaseline, 0)
	if err := repo.database.Order("metric ASC").Find(&baselines).Error; err != nil {
		return nil, err
	}
	return baselines, nil
}

// SaveBaseline replaces the stored baseline for the metric.
func (repo *MetricRepository) SaveBaseline(baseline *models.MetricBaseline) error {
	return repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "metric"}},
		UpdateAll: true,
	}).Create(baseline).Error
}

func (repo *MetricRepository) ListDayValues() ([]models.MetricDayValue, error) {
	values := make([]models.MetricDayValue, 0)
	if err := repo.database.Order("metric ASC, day ASC").Find(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

func (repo *MetricRepository) SaveDayValue(value models.MetricDayValue) error {
	return repo.database.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "metric"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "created_at"}),
	}).Create(&value).Error
}

func (repo *MetricRepository) DeleteAll() error {
	return repo.database.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.MetricDayValue{}).Error
}
