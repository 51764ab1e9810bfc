package services

import (
	"sort"
	"time"
)

// DayIntensity feeds the calendar heat map.
type DayIntensity struct {
	Day             string    `json:"day"`
	Date            time.Time `json:"date"`
	EntryCount      int       `json:"entry_count"`
	MaxSeverity     int       `json:"max_severity"`
	AverageSeverity float64   `json:"average_severity"`
}

func BuildDayIntensities(snapshot AnalysisSnapshot, window AnalysisWindow) []DayIntensity {
	location := window.location()
	totals := make(map[string]int)
	byKey := make(map[string]*DayIntensity)
	for _, entry := range snapshot.Entries {
		at := entry.EffectiveAt()
		if !window.Contains(at) {
			continue
		}
		key := DayKey(at, location)
		day, ok := byKey[key]
		if !ok {
			day = &DayIntensity{Day: key, Date: DateAtLocation(at, location)}
			byKey[key] = day
		}
		day.EntryCount++
		day.MaxSeverity = max(day.MaxSeverity, entry.Severity)
		totals[key] += entry.Severity
	}

	days := make([]DayIntensity, 0, len(byKey))
	for key, day := range byKey {
		day.AverageSeverity = float64(totals[key]) / float64(day.EntryCount)
		days = append(days, *day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days
}
