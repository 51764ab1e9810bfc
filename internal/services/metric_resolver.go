package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/models"
	"golang.org/x/sync/singleflight"
)

var ErrUnknownMetric = errors.New("unknown metric")

const (
	CycleDaySearchDays     = 45
	DefaultCurrentValueTTL = 15 * time.Minute
	currentValueLookback   = 7 * 24 * time.Hour
	sharedFetchTimeout     = 30 * time.Second
)

// MetricResolver answers "what was metric M on date D" cache-first, querying the provider only
// on a miss. Only fully elapsed days are cached, since only those are immutable.
type MetricResolver struct {
	source          health.DataSource
	cache           *MetricCache
	fallback        health.Fallback
	location        *time.Location
	currentValueTTL time.Duration
	group           singleflight.Group
	now             func() time.Time
}

func NewMetricResolver(source health.DataSource, cache *MetricCache, fallback health.Fallback) *MetricResolver {
	return &MetricResolver{
		source:          source,
		cache:           cache,
		fallback:        fallback,
		location:        cache.Location(),
		currentValueTTL: DefaultCurrentValueTTL,
		now:             time.Now,
	}
}

func (resolver *MetricResolver) SetCurrentValueTTL(ttl time.Duration) {
	if ttl > 0 {
		resolver.currentValueTTL = ttl
	}
}

func (resolver *MetricResolver) Location() *time.Location {
	return resolver.location
}

// ValueForDate resolves any metric kind to a number. Cycle day is the 1-based day count,
// flow level its rank (none=0 .. heavy=4). A nil value means no data.
func (resolver *MetricResolver) ValueForDate(ctx context.Context, metric models.MetricKind, date time.Time) (*float64, error) {
	switch metric {
	case models.MetricHRV:
		return resolver.HRV(ctx, date)
	case models.MetricRestingHR:
		return resolver.RestingHeartRate(ctx, date)
	case models.MetricSleepHours:
		return resolver.SleepHours(ctx, date)
	case models.MetricWorkoutMinutes:
		return resolver.WorkoutMinutes(ctx, date)
	case models.MetricCycleDay:
		cycleDay, err := resolver.CycleDay(ctx, date)
		if err != nil || cycleDay == nil {
			return nil, err
		}
		value := float64(*cycleDay)
		return &value, nil
	case models.MetricFlowLevel:
		level, err := resolver.FlowLevel(ctx, date)
		if err != nil || level == nil {
			return nil, err
		}
		value := float64(level.Rank())
		return &value, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
}

func (resolver *MetricResolver) HRV(ctx context.Context, date time.Time) (*float64, error) {
	return resolver.cachedQuantity(ctx, QuantityHRV, date, func(ctx context.Context, dayStart time.Time, dayEnd time.Time) (*float64, error) {
		return resolver.latestSampleInDay(ctx, health.QuantityHRV, dayStart, dayEnd)
	})
}

func (resolver *MetricResolver) RestingHeartRate(ctx context.Context, date time.Time) (*float64, error) {
	return resolver.cachedQuantity(ctx, QuantityRestingHR, date, func(ctx context.Context, dayStart time.Time, dayEnd time.Time) (*float64, error) {
		return resolver.latestSampleInDay(ctx, health.QuantityRestingHeartRate, dayStart, dayEnd)
	})
}

// SleepHours uses last-night reconstruction for today and a day-bounded sum for past days.
func (resolver *MetricResolver) SleepHours(ctx context.Context, date time.Time) (*float64, error) {
	if sameCalendarDay(date, resolver.now(), resolver.location) {
		night, err := resolver.LastNightSleep(ctx, date)
		if err != nil || night == nil {
			return nil, err
		}
		hours := night.TotalHours
		return &hours, nil
	}

	return resolver.cachedQuantity(ctx, QuantitySleepHours, date, func(ctx context.Context, dayStart time.Time, dayEnd time.Time) (*float64, error) {
		samples, err := resolver.source.FetchCategorySamples(ctx, health.CategorySleepAnalysis, health.Query{Start: dayStart, End: dayEnd})
		if err != nil {
			return nil, err
		}
		var total time.Duration
		for _, sample := range health.AsleepSamples(samples) {
			total += sample.Duration()
		}
		if total <= 0 {
			return nil, nil
		}
		hours := total.Hours()
		return &hours, nil
	})
}

func (resolver *MetricResolver) WorkoutMinutes(ctx context.Context, date time.Time) (*float64, error) {
	return resolver.cachedQuantity(ctx, QuantityWorkoutMinutes, date, func(ctx context.Context, dayStart time.Time, dayEnd time.Time) (*float64, error) {
		workouts, err := resolver.source.FetchWorkouts(ctx, health.Query{Start: dayStart, End: dayEnd})
		if err != nil {
			return nil, err
		}
		var total time.Duration
		for _, workout := range workouts {
			total += workout.Duration()
		}
		if total <= 0 {
			return nil, nil
		}
		minutes := total.Minutes()
		return &minutes, nil
	})
}

// LastNightSleep reconstructs the night ending on date, searching from 12 hours before it.
// Sessions starting after the morning of date belong to the following night and are ignored.
func (resolver *MetricResolver) LastNightSleep(ctx context.Context, date time.Time) (*NightSleep, error) {
	dayStart, dayEnd := DayRange(date, resolver.location)
	end := dayEnd
	if now := resolver.now(); now.Before(end) && now.After(dayStart) {
		end = now
	}

	samples, err := resolver.source.FetchCategorySamples(ctx, health.CategorySleepAnalysis, health.Query{
		Start: dayStart.Add(-SleepNightLookback),
		End:   end,
		Sort:  health.SortStartAscending,
	})
	if err != nil {
		value, absorbErr := resolver.absorb(models.MetricSleepHours, date, err)
		if absorbErr != nil || value == nil {
			return nil, absorbErr
		}
		return &NightSleep{TotalHours: *value}, nil
	}

	night, ok := LastNightSleep(samples, date, resolver.location)
	if !ok {
		return nil, nil
	}
	return &night, nil
}

func (resolver *MetricResolver) CycleDay(ctx context.Context, date time.Time) (*int, error) {
	if value, ok := resolver.cache.CycleDay(date); ok {
		return &value, nil
	}

	key := string(models.MetricCycleDay) + ":" + resolver.cache.DayKey(date)
	result, err := resolver.shared(ctx, key, func(ctx context.Context) (any, error) {
		if value, ok := resolver.cache.CycleDay(date); ok {
			return &value, nil
		}
		dayStart, dayEnd := DayRange(date, resolver.location)
		samples, err := resolver.source.FetchCategorySamples(ctx, health.CategoryMenstrualFlow, health.Query{
			Start: dayStart.AddDate(0, 0, -CycleDaySearchDays),
			End:   dayEnd,
			Sort:  health.SortStartDescending,
		})
		if err != nil {
			return nil, err
		}
		for _, sample := range samples {
			if !models.ParseFlowLevel(sample.Value).IsMenstruation() {
				continue
			}
			cycleDay := CalendarDaysBetween(sample.Start, dayStart, resolver.location) + 1
			if cycleDay < 1 {
				continue
			}
			if resolver.isPastDay(dayEnd) {
				resolver.cache.SetCycleDay(date, cycleDay)
			}
			return &cycleDay, nil
		}
		return (*int)(nil), nil
	})
	if err != nil {
		value, absorbErr := resolver.absorb(models.MetricCycleDay, date, err)
		if absorbErr != nil || value == nil {
			return nil, absorbErr
		}
		cycleDay := int(*value)
		return &cycleDay, nil
	}
	cycleDay, _ := result.(*int)
	return cycleDay, nil
}

func (resolver *MetricResolver) FlowLevel(ctx context.Context, date time.Time) (*models.FlowLevel, error) {
	if value, ok := resolver.cache.FlowLevel(date); ok {
		return &value, nil
	}

	key := string(models.MetricFlowLevel) + ":" + resolver.cache.DayKey(date)
	result, err := resolver.shared(ctx, key, func(ctx context.Context) (any, error) {
		if value, ok := resolver.cache.FlowLevel(date); ok {
			return &value, nil
		}
		dayStart, dayEnd := DayRange(date, resolver.location)
		samples, err := resolver.source.FetchCategorySamples(ctx, health.CategoryMenstrualFlow, health.Query{Start: dayStart, End: dayEnd})
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			return (*models.FlowLevel)(nil), nil
		}
		highest := models.ParseFlowLevel(samples[0].Value)
		for _, sample := range samples[1:] {
			if level := models.ParseFlowLevel(sample.Value); level.Rank() > highest.Rank() {
				highest = level
			}
		}
		if resolver.isPastDay(dayEnd) {
			resolver.cache.SetFlowLevel(date, highest)
		}
		return &highest, nil
	})
	if err != nil {
		value, absorbErr := resolver.absorb(models.MetricFlowLevel, date, err)
		if absorbErr != nil || value == nil {
			return nil, absorbErr
		}
		level := models.FlowLevelFromCode(int(*value))
		return &level, nil
	}
	level, _ := result.(*models.FlowLevel)
	return level, nil
}

// CurrentValue returns the most recent HRV or resting heart rate sample, re-querying only when
// the metric's freshness window has elapsed or force is set.
func (resolver *MetricResolver) CurrentValue(ctx context.Context, metric QuantityMetric, force bool) (*float64, error) {
	quantityType, ok := baselineQuantityTypes[metric]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no current value", ErrUnknownMetric, metric)
	}

	if !resolver.cache.ShouldRefresh(metric.Kind(), resolver.currentValueTTL, force) {
		if value, _, ok := resolver.cache.Latest(metric); ok {
			return &value, nil
		}
	}

	now := resolver.now()
	samples, err := resolver.source.FetchQuantitySamples(ctx, quantityType, health.Query{
		Start: now.Add(-currentValueLookback),
		End:   now,
		Limit: 1,
		Sort:  health.SortEndDescending,
	})
	if err != nil {
		return resolver.absorb(metric.Kind(), now, err)
	}
	resolver.cache.MarkFetched(metric.Kind(), now)
	if len(samples) == 0 {
		return nil, nil
	}
	value, ok := samples[0].Canonical()
	if !ok {
		return nil, nil
	}
	resolver.cache.SetLatest(metric, value, samples[0].End)
	return &value, nil
}

// RangeAverage asks the provider for the average of a quantity over [from, to).
func (resolver *MetricResolver) RangeAverage(ctx context.Context, metric QuantityMetric, from time.Time, to time.Time) (*float64, error) {
	quantityType, ok := baselineQuantityTypes[metric]
	if !ok {
		return nil, fmt.Errorf("%w: %q has no range average", ErrUnknownMetric, metric)
	}
	stats, err := resolver.source.FetchStatistics(ctx, quantityType, health.Query{Start: from, End: to}, health.StatisticsAverage)
	if err != nil {
		return resolver.absorb(metric.Kind(), from, err)
	}
	if stats == nil || stats.Average == nil {
		return nil, nil
	}
	return stats.Average, nil
}

// shared runs fetch once per key for every concurrent caller. The fetch is detached from the
// caller that started it, so one caller giving up never fails the others; each caller still
// stops waiting when its own context ends.
func (resolver *MetricResolver) shared(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	results := resolver.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return fetch(fetchCtx)
	})
	select {
	case result := <-results:
		return result.Val, result.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type dayComputation func(ctx context.Context, dayStart time.Time, dayEnd time.Time) (*float64, error)

func (resolver *MetricResolver) cachedQuantity(ctx context.Context, metric QuantityMetric, date time.Time, compute dayComputation) (*float64, error) {
	if value, ok := resolver.cache.Quantity(metric, date); ok {
		return &value, nil
	}

	key := string(metric) + ":" + resolver.cache.DayKey(date)
	result, err := resolver.shared(ctx, key, func(ctx context.Context) (any, error) {
		if value, ok := resolver.cache.Quantity(metric, date); ok {
			return &value, nil
		}
		dayStart, dayEnd := DayRange(date, resolver.location)
		value, err := compute(ctx, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}
		if value != nil && resolver.isPastDay(dayEnd) {
			resolver.cache.SetQuantity(metric, date, *value)
		}
		return value, nil
	})
	if err != nil {
		return resolver.absorb(metric.Kind(), date, err)
	}
	value, _ := result.(*float64)
	return value, nil
}

func (resolver *MetricResolver) latestSampleInDay(ctx context.Context, quantityType health.QuantityType, dayStart time.Time, dayEnd time.Time) (*float64, error) {
	samples, err := resolver.source.FetchQuantitySamples(ctx, quantityType, health.Query{
		Start: dayStart,
		End:   dayEnd,
		Limit: 1,
		Sort:  health.SortEndDescending,
	})
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	value, ok := samples[0].Canonical()
	if !ok {
		log.Printf("metrics: unsupported %s unit %q", quantityType, samples[0].Unit)
		return nil, nil
	}
	return &value, nil
}

// absorb applies the provider error policy: denied authorization is "no data", a missing
// provider falls back when possible, anything else (timeouts included) goes to the caller.
func (resolver *MetricResolver) absorb(metric models.MetricKind, date time.Time, err error) (*float64, error) {
	switch {
	case errors.Is(err, health.ErrAuthorizationDenied):
		return nil, nil
	case errors.Is(err, health.ErrProviderUnavailable):
		if resolver.fallback == nil {
			return nil, nil
		}
		value, ok := resolver.fallback.FallbackValue(metric, date)
		if !ok {
			return nil, nil
		}
		return &value, nil
	default:
		log.Printf("metrics: resolve %s for %s failed: %v", metric, resolver.cache.DayKey(date), err)
		return nil, err
	}
}

func (resolver *MetricResolver) isPastDay(dayEnd time.Time) bool {
	return !resolver.now().Before(dayEnd)
}
