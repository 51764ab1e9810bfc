package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
)

var ErrInvalidAnalysisWindow = errors.New("invalid analysis window")

var AnalysisPresetDays = []int{7, 30, 90}

const (
	DefaultAnalysisDays = 30
	MaxAnalysisDays     = 3660
)

// AnalysisWindow is the half-open interval [Start, End) of whole local days being analysed.
type AnalysisWindow struct {
	Start    time.Time
	End      time.Time
	Days     int
	Location *time.Location
}

// NewAnalysisWindow covers the given number of calendar days ending with the day containing now.
func NewAnalysisWindow(now time.Time, days int, location *time.Location) (AnalysisWindow, error) {
	if days <= 0 || days > MaxAnalysisDays {
		return AnalysisWindow{}, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidAnalysisWindow, MaxAnalysisDays, days)
	}
	if location == nil {
		location = time.Local
	}
	_, end := DayRange(now, location)
	start := DateAtLocation(now, location).AddDate(0, 0, -(days - 1))
	return AnalysisWindow{Start: start, End: end, Days: days, Location: location}, nil
}

func IsAnalysisPreset(days int) bool {
	for _, preset := range AnalysisPresetDays {
		if preset == days {
			return true
		}
	}
	return false
}

func (window AnalysisWindow) Contains(value time.Time) bool {
	return !value.Before(window.Start) && value.Before(window.End)
}

func (window AnalysisWindow) Midpoint() time.Time {
	return window.Start.Add(window.End.Sub(window.Start) / 2)
}

func (window AnalysisWindow) location() *time.Location {
	if window.Location == nil {
		return time.Local
	}
	return window.Location
}

// AnalysisSnapshot is the read-only input of every analysis. Activities may start up to a day
// before the window so that early entries can still be attributed to them.
type AnalysisSnapshot struct {
	Entries    []models.SymptomEntry
	Types      []models.SymptomType
	Activities []models.ActivityEvent
}

// MetricLookup resolves a per-day health metric; nil means no data for that day.
type MetricLookup interface {
	ValueForDate(ctx context.Context, metric models.MetricKind, date time.Time) (*float64, error)
}

// BaselineDeviations scores a value against a rolling baseline.
type BaselineDeviations interface {
	Deviation(metric QuantityMetric, value float64) (float64, bool)
}

type AnalysisReport struct {
	WindowStart               time.Time                  `json:"window_start"`
	WindowEnd                 time.Time                  `json:"window_end"`
	Days                      int                        `json:"days"`
	EntryCount                int                        `json:"entry_count"`
	Trends                    []SymptomTrend             `json:"trends"`
	ActivityCorrelations      []ActivityCorrelation      `json:"activity_correlations"`
	TimePatterns              []TimePattern              `json:"time_patterns"`
	PhysiologicalCorrelations []PhysiologicalCorrelation `json:"physiological_correlations"`
	GeneratedAt               time.Time                  `json:"generated_at"`
}

type entryGroup struct {
	symptom models.SymptomType
	entries []models.SymptomEntry
}

// groupEntriesByType keeps in-window entries whose type is known, grouped in order of each
// type's first entry.
func groupEntriesByType(snapshot AnalysisSnapshot, window AnalysisWindow) []entryGroup {
	typesByID := make(map[uint]models.SymptomType, len(snapshot.Types))
	for _, symptom := range snapshot.Types {
		typesByID[symptom.ID] = symptom
	}

	indexByID := make(map[uint]int)
	groups := make([]entryGroup, 0)
	for _, entry := range snapshot.Entries {
		if !window.Contains(entry.EffectiveAt()) {
			continue
		}
		symptom, ok := typesByID[entry.SymptomTypeID]
		if !ok {
			continue
		}
		index, seen := indexByID[symptom.ID]
		if !seen {
			index = len(groups)
			indexByID[symptom.ID] = index
			groups = append(groups, entryGroup{symptom: symptom})
		}
		groups[index].entries = append(groups[index].entries, entry)
	}
	return groups
}

func averageSeverity(entries []models.SymptomEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	total := 0
	for _, entry := range entries {
		total += entry.Severity
	}
	return float64(total) / float64(len(entries))
}

func countEntriesInWindow(entries []models.SymptomEntry, window AnalysisWindow) int {
	count := 0
	for _, entry := range entries {
		if window.Contains(entry.EffectiveAt()) {
			count++
		}
	}
	return count
}
