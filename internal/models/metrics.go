package models

import "time"

// MetricBaseline is the persisted 30-day rolling baseline for one metric.
type MetricBaseline struct {
	Metric      string    `gorm:"primaryKey"`
	Mean        float64   `gorm:"not null"`
	StdDev      float64   `gorm:"not null;default:0"`
	SampleCount int       `gorm:"not null"`
	WindowStart time.Time `gorm:"not null"`
	WindowEnd   time.Time `gorm:"not null"`
	ComputedAt  time.Time `gorm:"not null"`
}

// MetricDayValue mirrors one cached (metric, calendar day) value.
type MetricDayValue struct {
	Metric    string  `gorm:"primaryKey"`
	Day       string  `gorm:"primaryKey;size:10"`
	Value     float64 `gorm:"not null"`
	CreatedAt time.Time
}

type MetricKind string

const (
	MetricHRV            MetricKind = "hrv"
	MetricRestingHR      MetricKind = "resting_heart_rate"
	MetricSleepHours     MetricKind = "sleep_hours"
	MetricWorkoutMinutes MetricKind = "workout_minutes"
	MetricCycleDay       MetricKind = "cycle_day"
	MetricFlowLevel      MetricKind = "flow_level"
)

func AllMetricKinds() []MetricKind {
	return []MetricKind{
		MetricHRV,
		MetricRestingHR,
		MetricSleepHours,
		MetricWorkoutMinutes,
		MetricCycleDay,
		MetricFlowLevel,
	}
}

func ParseMetricKind(raw string) (MetricKind, bool) {
	for _, kind := range AllMetricKinds() {
		if string(kind) == raw {
			return kind, true
		}
	}
	return "", false
}
