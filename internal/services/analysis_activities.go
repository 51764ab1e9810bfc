package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
)

type CorrelationKind string

const (
	CorrelationPositive CorrelationKind = "positive"
	CorrelationNegative CorrelationKind = "negative"
	CorrelationNeutral  CorrelationKind = "neutral"
)

const (
	ActivityEffectWindow       = 24 * time.Hour
	ActivityCorrelationMinimum = 3
	ActivityCorrelationDelta   = 0.5
)

// ActivityCorrelation compares raw severity after an activity with severity otherwise.
// Positive means the activity coincides with the symptom getting worse.
type ActivityCorrelation struct {
	Activity       string          `json:"activity"`
	SymptomTypeID  uint            `json:"symptom_type_id"`
	SymptomName    string          `json:"symptom_name"`
	AverageAfter   float64         `json:"average_after"`
	AverageWithout float64         `json:"average_without"`
	Difference     float64         `json:"difference"`
	AfterCount     int             `json:"after_count"`
	WithoutCount   int             `json:"without_count"`
	Correlation    CorrelationKind `json:"correlation"`
}

func AnalyseActivityCorrelations(snapshot AnalysisSnapshot, window AnalysisWindow) []ActivityCorrelation {
	groups := groupEntriesByType(snapshot, window)
	activities := groupActivityTimes(snapshot.Activities)
	correlations := make([]ActivityCorrelation, 0)

	for _, activity := range activities {
		for _, group := range groups {
			after := make([]models.SymptomEntry, 0)
			without := make([]models.SymptomEntry, 0)
			for _, entry := range group.entries {
				if followsAnyEvent(entry.EffectiveAt(), activity.times) {
					after = append(after, entry)
				} else {
					without = append(without, entry)
				}
			}
			if len(after) < ActivityCorrelationMinimum || len(without) < ActivityCorrelationMinimum {
				continue
			}

			averageAfter := averageSeverity(after)
			averageWithout := averageSeverity(without)
			difference := averageAfter - averageWithout
			correlations = append(correlations, ActivityCorrelation{
				Activity:       activity.name,
				SymptomTypeID:  group.symptom.ID,
				SymptomName:    group.symptom.Name,
				AverageAfter:   averageAfter,
				AverageWithout: averageWithout,
				Difference:     difference,
				AfterCount:     len(after),
				WithoutCount:   len(without),
				Correlation:    classifyActivityCorrelation(group.symptom, difference),
			})
		}
	}

	sort.SliceStable(correlations, func(i, j int) bool {
		left, right := math.Abs(correlations[i].Difference), math.Abs(correlations[j].Difference)
		if left != right {
			return left > right
		}
		if correlations[i].Activity != correlations[j].Activity {
			return correlations[i].Activity < correlations[j].Activity
		}
		return correlations[i].SymptomName < correlations[j].SymptomName
	})
	return correlations
}

// classifyActivityCorrelation flips the sign for positively framed symptoms, where a higher
// severity after the activity means it helps.
func classifyActivityCorrelation(symptom models.SymptomType, difference float64) CorrelationKind {
	if symptom.IsPositive() {
		difference = -difference
	}
	switch {
	case difference > ActivityCorrelationDelta:
		return CorrelationPositive
	case difference < -ActivityCorrelationDelta:
		return CorrelationNegative
	default:
		return CorrelationNeutral
	}
}

type activityTimes struct {
	name  string
	times []time.Time
}

// groupActivityTimes merges events by case-insensitive name, keeping the first spelling seen.
func groupActivityTimes(events []models.ActivityEvent) []activityTimes {
	indexByKey := make(map[string]int)
	groups := make([]activityTimes, 0)
	for _, event := range events {
		name := strings.TrimSpace(event.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		index, ok := indexByKey[key]
		if !ok {
			index = len(groups)
			indexByKey[key] = index
			groups = append(groups, activityTimes{name: name})
		}
		groups[index].times = append(groups[index].times, event.EffectiveAt())
	}
	return groups
}

// followsAnyEvent reports whether value lies in (event, event+24h] for some event.
func followsAnyEvent(value time.Time, events []time.Time) bool {
	for _, event := range events {
		if value.After(event) && !value.After(event.Add(ActivityEffectWindow)) {
			return true
		}
	}
	return false
}
