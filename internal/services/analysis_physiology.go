package services

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
)

type CorrelationStrength string

const (
	StrengthStrong   CorrelationStrength = "strong"
	StrengthModerate CorrelationStrength = "moderate"
	StrengthWeak     CorrelationStrength = "weak"
	StrengthNone     CorrelationStrength = "none"
)

// Days whose average severity reaches HighSeverityDayThreshold are "high" days.
const HighSeverityDayThreshold = 3.0

const (
	strongCorrelation   = 0.30
	moderateCorrelation = 0.15
	weakCorrelation     = 0.05
)

var physiologicalMetrics = []models.MetricKind{
	models.MetricHRV,
	models.MetricRestingHR,
	models.MetricSleepHours,
	models.MetricWorkoutMinutes,
}

// PhysiologicalCorrelation compares a metric's average on high and low severity days.
// PercentDifference = (high - low) / low * 100 and Strength = clamp(PercentDifference/100, -1, 1).
type PhysiologicalCorrelation struct {
	Metric              models.MetricKind   `json:"metric"`
	SymptomTypeID       uint                `json:"symptom_type_id"`
	SymptomName         string              `json:"symptom_name"`
	HighSeverityAverage float64             `json:"high_severity_average"`
	LowSeverityAverage  float64             `json:"low_severity_average"`
	HighDays            int                 `json:"high_days"`
	LowDays             int                 `json:"low_days"`
	PercentDifference   float64             `json:"percent_difference"`
	Strength            float64             `json:"strength"`
	Bucket              CorrelationStrength `json:"bucket"`
	BaselineDeviation   *float64            `json:"baseline_deviation,omitempty"`
}

type severityDay struct {
	date     time.Time
	key      string
	severity float64
	entries  []models.SymptomEntry
}

// AnalysePhysiologicalCorrelations resolves metrics per day through lookup, falling back to the
// snapshot captured on the entries. A failing lookup counts as missing data; only a cancelled
// context aborts the analysis.
func AnalysePhysiologicalCorrelations(ctx context.Context, snapshot AnalysisSnapshot, window AnalysisWindow, lookup MetricLookup, baselines BaselineDeviations) ([]PhysiologicalCorrelation, error) {
	groups := groupEntriesByType(snapshot, window)
	correlations := make([]PhysiologicalCorrelation, 0)
	if len(groups) == 0 {
		return correlations, nil
	}

	resolver := newDayMetricMemo(lookup)
	for _, metric := range physiologicalMetrics {
		for _, group := range groups {
			days := severityDays(group.entries, window.location())

			var highValues, lowValues []float64
			for _, day := range days {
				value, err := resolver.value(ctx, metric, day)
				if err != nil {
					return nil, err
				}
				if value == nil {
					continue
				}
				if day.severity >= HighSeverityDayThreshold {
					highValues = append(highValues, *value)
				} else {
					lowValues = append(lowValues, *value)
				}
			}
			if len(highValues) == 0 || len(lowValues) == 0 {
				continue
			}

			highAverage := meanOf(highValues)
			lowAverage := meanOf(lowValues)
			if lowAverage == 0 {
				continue
			}

			percent := (highAverage - lowAverage) / lowAverage * 100
			strength := clampFloat(percent/100, -1, 1)
			correlation := PhysiologicalCorrelation{
				Metric:              metric,
				SymptomTypeID:       group.symptom.ID,
				SymptomName:         group.symptom.Name,
				HighSeverityAverage: highAverage,
				LowSeverityAverage:  lowAverage,
				HighDays:            len(highValues),
				LowDays:             len(lowValues),
				PercentDifference:   percent,
				Strength:            strength,
				Bucket:              bucketStrength(strength),
			}
			if baselines != nil {
				if quantity, ok := quantityMetricFor(metric); ok {
					if deviation, ok := baselines.Deviation(quantity, highAverage); ok {
						correlation.BaselineDeviation = &deviation
					}
				}
			}
			correlations = append(correlations, correlation)
		}
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		left, right := math.Abs(correlations[i].Strength), math.Abs(correlations[j].Strength)
		if left != right {
			return left > right
		}
		if correlations[i].Metric != correlations[j].Metric {
			return correlations[i].Metric < correlations[j].Metric
		}
		return correlations[i].SymptomName < correlations[j].SymptomName
	})
	return correlations, nil
}

func bucketStrength(strength float64) CorrelationStrength {
	magnitude := math.Abs(strength)
	switch {
	case magnitude >= strongCorrelation:
		return StrengthStrong
	case magnitude >= moderateCorrelation:
		return StrengthModerate
	case magnitude >= weakCorrelation:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

func severityDays(entries []models.SymptomEntry, location *time.Location) []severityDay {
	indexByKey := make(map[string]int)
	days := make([]severityDay, 0)
	for _, entry := range entries {
		at := entry.EffectiveAt()
		key := DayKey(at, location)
		index, ok := indexByKey[key]
		if !ok {
			index = len(days)
			indexByKey[key] = index
			days = append(days, severityDay{date: DateAtLocation(at, location), key: key})
		}
		days[index].entries = append(days[index].entries, entry)
	}
	for index := range days {
		days[index].severity = averageSeverity(days[index].entries)
	}
	return days
}

// dayMetricMemo avoids resolving the same (metric, day) once per symptom type.
type dayMetricMemo struct {
	lookup MetricLookup
	values map[models.MetricKind]map[string]*float64
	failed map[models.MetricKind]bool
}

func newDayMetricMemo(lookup MetricLookup) *dayMetricMemo {
	return &dayMetricMemo{
		lookup: lookup,
		values: make(map[models.MetricKind]map[string]*float64),
		failed: make(map[models.MetricKind]bool),
	}
}

func (memo *dayMetricMemo) value(ctx context.Context, metric models.MetricKind, day severityDay) (*float64, error) {
	byDay, ok := memo.values[metric]
	if !ok {
		byDay = make(map[string]*float64)
		memo.values[metric] = byDay
	}
	if value, ok := byDay[day.key]; ok {
		return orSnapshot(value, metric, day.entries), nil
	}

	var resolved *float64
	if memo.lookup != nil {
		value, err := memo.lookup.ValueForDate(ctx, metric, day.date)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			if !memo.failed[metric] {
				log.Printf("analysis: resolve %s failed, using logged snapshots: %v", metric, err)
				memo.failed[metric] = true
			}
		default:
			resolved = value
		}
	}
	byDay[day.key] = resolved
	return orSnapshot(resolved, metric, day.entries), nil
}

func orSnapshot(value *float64, metric models.MetricKind, entries []models.SymptomEntry) *float64 {
	if value != nil {
		return value
	}
	return snapshotAverage(metric, entries)
}

// snapshotAverage averages the values captured on the entries at logging time.
func snapshotAverage(metric models.MetricKind, entries []models.SymptomEntry) *float64 {
	values := make([]float64, 0, len(entries))
	for _, entry := range entries {
		var captured *float64
		switch metric {
		case models.MetricHRV:
			captured = entry.HRV
		case models.MetricRestingHR:
			captured = entry.RestingHR
		case models.MetricSleepHours:
			captured = entry.SleepHours
		}
		if captured != nil {
			values = append(values, *captured)
		}
	}
	if len(values) == 0 {
		return nil
	}
	average := meanOf(values)
	return &average
}

func clampFloat(value float64, low float64, high float64) float64 {
	return max(low, min(high, value))
}
