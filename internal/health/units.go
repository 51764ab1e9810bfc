package health

import "strings"

const (
	UnitMilliseconds = "ms"
	UnitSeconds      = "s"
	UnitBPM          = "bpm"
	UnitCountPerSec  = "count/s"
	UnitCountPerMin  = "count/min"
)

// Milliseconds converts an HRV sample to milliseconds.
func (sample QuantitySample) Milliseconds() (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(sample.Unit)) {
	case UnitMilliseconds, "":
		return sample.Value, true
	case UnitSeconds:
		return sample.Value * 1000, true
	default:
		return 0, false
	}
}

// BeatsPerMinute converts a heart-rate sample to beats per minute.
func (sample QuantitySample) BeatsPerMinute() (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(sample.Unit)) {
	case UnitBPM, UnitCountPerMin, "":
		return sample.Value, true
	case UnitCountPerSec:
		return sample.Value * 60, true
	default:
		return 0, false
	}
}

// Canonical returns the sample value in the unit the rest of the system stores for its type.
func (sample QuantitySample) Canonical() (float64, bool) {
	switch sample.Type {
	case QuantityHRV:
		return sample.Milliseconds()
	case QuantityRestingHeartRate:
		return sample.BeatsPerMinute()
	default:
		return sample.Value, true
	}
}
