package models

import "time"

type ActivityEvent struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Name        string     `gorm:"not null;index"`
	Category    string     `gorm:"not null;default:other"`
	OccurredAt  time.Time  `gorm:"not null;index"`
	BackdatedAt *time.Time `gorm:"index"`
	Note        string
}

func (event ActivityEvent) EffectiveAt() time.Time {
	if event.BackdatedAt != nil {
		return *event.BackdatedAt
	}
	return event.OccurredAt
}
