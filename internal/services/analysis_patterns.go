package services

import (
	"sort"
)

type TimeOfDayBand string

const (
	BandNight     TimeOfDayBand = "night"
	BandMorning   TimeOfDayBand = "morning"
	BandAfternoon TimeOfDayBand = "afternoon"
	BandEvening   TimeOfDayBand = "evening"
)

var timeOfDayBands = []TimeOfDayBand{BandNight, BandMorning, BandAfternoon, BandEvening}

// A weekday peak is reported only when its day has at least PeakWeekdayMinimum entries and
// PeakWeekdayDominance times the entries of the next busiest day.
const (
	PeakWeekdayMinimum   = 3
	PeakWeekdayDominance = 1.5
)

// TimePattern buckets one symptom type by local hour and weekday. Weekdays are numbered
// 1 (Sunday) to 7 (Saturday); WeekdayCounts[0] is Sunday.
type TimePattern struct {
	SymptomTypeID uint          `json:"symptom_type_id"`
	SymptomName   string        `json:"symptom_name"`
	TotalCount    int           `json:"total_count"`
	HourCounts    [24]int       `json:"hour_counts"`
	WeekdayCounts [7]int        `json:"weekday_counts"`
	PeakHour      int           `json:"peak_hour"`
	PeakWeekday   *int          `json:"peak_weekday,omitempty"`
	Band          TimeOfDayBand `json:"band"`
}

func AnalyseTimePatterns(snapshot AnalysisSnapshot, window AnalysisWindow) []TimePattern {
	groups := groupEntriesByType(snapshot, window)
	location := window.location()
	patterns := make([]TimePattern, 0, len(groups))

	for _, group := range groups {
		pattern := TimePattern{
			SymptomTypeID: group.symptom.ID,
			SymptomName:   group.symptom.Name,
			TotalCount:    len(group.entries),
		}
		for _, entry := range group.entries {
			local := entry.EffectiveAt().In(location)
			pattern.HourCounts[local.Hour()]++
			pattern.WeekdayCounts[int(local.Weekday())]++
		}
		pattern.PeakHour = peakHour(pattern.HourCounts)
		pattern.PeakWeekday = dominantWeekday(pattern.WeekdayCounts)
		pattern.Band = dominantBand(pattern.HourCounts)
		patterns = append(patterns, pattern)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].TotalCount != patterns[j].TotalCount {
			return patterns[i].TotalCount > patterns[j].TotalCount
		}
		return patterns[i].SymptomName < patterns[j].SymptomName
	})
	return patterns
}

func peakHour(counts [24]int) int {
	peak := 0
	for hour := 1; hour < len(counts); hour++ {
		if counts[hour] > counts[peak] {
			peak = hour
		}
	}
	return peak
}

func dominantWeekday(counts [7]int) *int {
	top, runnerUp := -1, 0
	for day, count := range counts {
		switch {
		case top < 0 || count > counts[top]:
			if top >= 0 {
				runnerUp = counts[top]
			}
			top = day
		case count > runnerUp:
			runnerUp = count
		}
	}

	if counts[top] < PeakWeekdayMinimum {
		return nil
	}
	if float64(counts[top]) < PeakWeekdayDominance*float64(runnerUp) {
		return nil
	}
	weekday := top + 1
	return &weekday
}

func bandForHour(hour int) TimeOfDayBand {
	switch {
	case hour < 6:
		return BandNight
	case hour < 12:
		return BandMorning
	case hour < 18:
		return BandAfternoon
	default:
		return BandEvening
	}
}

func dominantBand(hours [24]int) TimeOfDayBand {
	totals := make(map[TimeOfDayBand]int, len(timeOfDayBands))
	for hour, count := range hours {
		totals[bandForHour(hour)] += count
	}
	best := timeOfDayBands[0]
	for _, band := range timeOfDayBands[1:] {
		if totals[band] > totals[best] {
			best = band
		}
	}
	return best
}
