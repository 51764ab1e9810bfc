package models

import "time"

const (
	MinSeverity = 1
	MaxSeverity = 5
)

// SymptomEntry is written once by the logging flow and read-only afterwards.
type SymptomEntry struct {
	ID            string     `gorm:"primaryKey;size:36"`
	SymptomTypeID uint       `gorm:"not null;index"`
	Severity      int        `gorm:"not null"`
	CreatedAt     time.Time  `gorm:"not null;index"`
	BackdatedAt   *time.Time `gorm:"index"`
	Note          string
	HRV           *float64 `gorm:"column:hrv_ms"`
	RestingHR     *float64 `gorm:"column:resting_hr_bpm"`
	SleepHours    *float64 `gorm:"column:sleep_hours"`
}

// EffectiveAt is the timestamp every time-based computation uses.
func (entry SymptomEntry) EffectiveAt() time.Time {
	if entry.BackdatedAt != nil {
		return *entry.BackdatedAt
	}
	return entry.CreatedAt
}

func IsValidSeverity(severity int) bool {
	return severity >= MinSeverity && severity <= MaxSeverity
}
