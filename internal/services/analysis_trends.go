package services

import (
	"sort"

	"github.com/terraincognita07/symptomcy/internal/models"
)

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
)

// TrendThreshold is the minimum change of half-window average wellbeing that counts as a trend.
const TrendThreshold = 0.5

// SymptomTrend direction describes wellbeing: "decreasing" means the user is doing worse,
// whichever way the symptom is framed.
type SymptomTrend struct {
	SymptomTypeID   uint           `json:"symptom_type_id"`
	Name            string         `json:"name"`
	Icon            string         `json:"icon"`
	Count           int            `json:"count"`
	AverageSeverity float64        `json:"average_severity"`
	Trend           TrendDirection `json:"trend"`
	Change          float64        `json:"change"`
}

func AnalyseSymptomTrends(snapshot AnalysisSnapshot, window AnalysisWindow) []SymptomTrend {
	groups := groupEntriesByType(snapshot, window)
	trends := make([]SymptomTrend, 0, len(groups))
	midpoint := window.Midpoint()

	for _, group := range groups {
		firstHalf := make([]float64, 0, len(group.entries))
		secondHalf := make([]float64, 0, len(group.entries))
		for _, entry := range group.entries {
			score := wellbeingScore(group.symptom, entry.Severity)
			if entry.EffectiveAt().Before(midpoint) {
				firstHalf = append(firstHalf, score)
			} else {
				secondHalf = append(secondHalf, score)
			}
		}

		trend := SymptomTrend{
			SymptomTypeID:   group.symptom.ID,
			Name:            group.symptom.Name,
			Icon:            group.symptom.Icon,
			Count:           len(group.entries),
			AverageSeverity: averageSeverity(group.entries),
			Trend:           TrendStable,
		}
		if len(firstHalf) > 0 && len(secondHalf) > 0 {
			trend.Change = meanOf(secondHalf) - meanOf(firstHalf)
			trend.Trend = classifyTrend(trend.Change)
		}
		trends = append(trends, trend)
	}

	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].Count != trends[j].Count {
			return trends[i].Count > trends[j].Count
		}
		return trends[i].Name < trends[j].Name
	})
	return trends
}

// wellbeingScore maps severity so that higher is always better for the user.
func wellbeingScore(symptom models.SymptomType, severity int) float64 {
	if symptom.IsPositive() {
		return float64(severity)
	}
	return float64(models.MaxSeverity + 1 - severity)
}

func classifyTrend(change float64) TrendDirection {
	switch {
	case change > TrendThreshold:
		return TrendIncreasing
	case change < -TrendThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, value := range values {
		total += value
	}
	return total / float64(len(values))
}
