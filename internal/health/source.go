// Package health abstracts the platform health-data provider as a time-series source.
package health

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
)

var (
	ErrProviderUnavailable = errors.New("health data provider unavailable")
	ErrAuthorizationDenied = errors.New("health data authorization denied")
	ErrQueryTimeout        = errors.New("health data query timed out")
)

type QuantityType string

const (
	QuantityHRV              QuantityType = "hrv_sdnn"
	QuantityRestingHeartRate QuantityType = "resting_heart_rate"
)

type CategoryType string

const (
	CategorySleepAnalysis CategoryType = "sleep_analysis"
	CategoryMenstrualFlow CategoryType = "menstrual_flow"
)

type SortOrder int

const (
	SortNone SortOrder = iota
	SortStartAscending
	SortStartDescending
	SortEndDescending
)

// Query bounds a fetch. Samples overlapping [Start, End) are returned. Limit <= 0 means no limit.
type Query struct {
	Start time.Time
	End   time.Time
	Limit int
	Sort  SortOrder
}

type QuantitySample struct {
	Type  QuantityType `json:"type"`
	Value float64      `json:"value"`
	Unit  string       `json:"unit"`
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
}

type CategorySample struct {
	Type  CategoryType `json:"type"`
	Value string       `json:"value"`
	Start time.Time    `json:"start"`
	End   time.Time    `json:"end"`
}

func (sample CategorySample) Duration() time.Duration {
	return sample.End.Sub(sample.Start)
}

type Workout struct {
	Activity string    `json:"activity"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func (workout Workout) Duration() time.Duration {
	return workout.End.Sub(workout.Start)
}

type StatisticsOptions uint8

const (
	StatisticsAverage StatisticsOptions = 1 << iota
	StatisticsMinimum
	StatisticsMaximum
	StatisticsSum
)

// Statistics holds only the aggregates requested through StatisticsOptions.
type Statistics struct {
	Average     *float64 `json:"average,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Sum         *float64 `json:"sum,omitempty"`
	SampleCount int      `json:"sample_count"`
}

// DataSource is the provider contract. Every call may fail; ErrProviderUnavailable,
// ErrAuthorizationDenied and ErrQueryTimeout are reported through errors.Is.
type DataSource interface {
	FetchQuantitySamples(ctx context.Context, quantityType QuantityType, query Query) ([]QuantitySample, error)
	FetchCategorySamples(ctx context.Context, categoryType CategoryType, query Query) ([]CategorySample, error)
	FetchWorkouts(ctx context.Context, query Query) ([]Workout, error)
	FetchStatistics(ctx context.Context, quantityType QuantityType, query Query, options StatisticsOptions) (*Statistics, error)
	RequestAuthorization(ctx context.Context, toShare []string, toRead []string) error
}

// Fallback supplies substitute values when the provider is unavailable.
type Fallback interface {
	FallbackValue(metric models.MetricKind, day time.Time) (float64, bool)
}

func overlaps(start time.Time, end time.Time, query Query) bool {
	if !query.End.IsZero() && !start.Before(query.End) {
		return false
	}
	if query.Start.IsZero() {
		return true
	}
	if end.Equal(start) {
		return !start.Before(query.Start)
	}
	return end.After(query.Start)
}

func sortByOrder[T any](items []T, order SortOrder, start func(T) time.Time, end func(T) time.Time) {
	switch order {
	case SortStartAscending:
		sort.SliceStable(items, func(i, j int) bool { return start(items[i]).Before(start(items[j])) })
	case SortStartDescending:
		sort.SliceStable(items, func(i, j int) bool { return start(items[i]).After(start(items[j])) })
	case SortEndDescending:
		sort.SliceStable(items, func(i, j int) bool { return end(items[i]).After(end(items[j])) })
	}
}

func applyLimit[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// BuildStatistics aggregates already fetched samples the way a provider statistics query would.
func BuildStatistics(samples []QuantitySample, options StatisticsOptions) *Statistics {
	if len(samples) == 0 {
		return nil
	}

	total := 0.0
	minimum := samples[0].Value
	maximum := samples[0].Value
	for _, sample := range samples {
		total += sample.Value
		minimum = min(minimum, sample.Value)
		maximum = max(maximum, sample.Value)
	}

	stats := &Statistics{SampleCount: len(samples)}
	if options&StatisticsAverage != 0 {
		average := total / float64(len(samples))
		stats.Average = &average
	}
	if options&StatisticsMinimum != 0 {
		stats.Minimum = &minimum
	}
	if options&StatisticsMaximum != 0 {
		stats.Maximum = &maximum
	}
	if options&StatisticsSum != 0 {
		stats.Sum = &total
	}
	return stats
}
