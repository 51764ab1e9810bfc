package db

import "gorm.io/gorm"

type Repositories struct {
	Symptoms   *SymptomRepository
	Entries    *SymptomEntryRepository
	Activities *ActivityRepository
	Metrics    *MetricRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Symptoms:   NewSymptomRepository(database),
		Entries:    NewSymptomEntryRepository(database),
		Activities: NewActivityRepository(database),
		Metrics:    NewMetricRepository(database),
	}
}
