package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/models"
)

var resolverTestNow = time.Date(2026, time.March, 12, 10, 0, 0, 0, time.UTC)

func newTestResolver(source health.DataSource, fallback health.Fallback) (*MetricResolver, *MetricCache) {
	cache := NewMetricCache(time.UTC, nil)
	cache.now = func() time.Time { return resolverTestNow }
	resolver := NewMetricResolver(source, cache, fallback)
	resolver.now = func() time.Time { return resolverTestNow }
	return resolver, cache
}

func marchAt(day int, hour int, minute int) time.Time {
	return time.Date(2026, time.March, day, hour, minute, 0, 0, time.UTC)
}

type fixedFallback struct {
	values map[models.MetricKind]float64
}

func (fallback fixedFallback) FallbackValue(metric models.MetricKind, _ time.Time) (float64, bool) {
	value, ok := fallback.values[metric]
	return value, ok
}

func TestMetricResolverHRVUsesLatestSampleAndCaches(t *testing.T) {
	source := health.NewMemorySource()
	source.AddQuantity(
		health.QuantitySample{Type: health.QuantityHRV, Value: 45, Unit: health.UnitMilliseconds, Start: marchAt(10, 7, 0), End: marchAt(10, 7, 1)},
		health.QuantitySample{Type: health.QuantityHRV, Value: 0.055, Unit: health.UnitSeconds, Start: marchAt(10, 21, 0), End: marchAt(10, 21, 1)},
		health.QuantitySample{Type: health.QuantityHRV, Value: 70, Unit: health.UnitMilliseconds, Start: marchAt(11, 7, 0), End: marchAt(11, 7, 1)},
	)
	resolver, cache := newTestResolver(source, nil)

	value, err := resolver.HRV(context.Background(), marchAt(10, 12, 0))
	if err != nil {
		t.Fatalf("HRV() unexpected error: %v", err)
	}
	if value == nil || *value != 55 {
		t.Fatalf("expected latest sample converted to 55ms, got %v", value)
	}
	if cached, ok := cache.Quantity(QuantityHRV, marchAt(10, 0, 0)); !ok || cached != 55 {
		t.Fatalf("expected value cached for the day, got %v (ok=%v)", cached, ok)
	}

	calls := source.Calls()
	again, err := resolver.ValueForDate(context.Background(), models.MetricHRV, marchAt(10, 23, 59))
	if err != nil || again == nil || *again != 55 {
		t.Fatalf("expected cached 55, got %v (%v)", again, err)
	}
	if source.Calls() != calls {
		t.Fatalf("expected cache hit without provider call, got %d calls", source.Calls()-calls)
	}
}

func TestMetricResolverDoesNotCacheToday(t *testing.T) {
	source := health.NewMemorySource()
	source.AddQuantity(health.QuantitySample{Type: health.QuantityRestingHeartRate, Value: 58, Unit: health.UnitBPM, Start: marchAt(12, 7, 0), End: marchAt(12, 7, 5)})
	resolver, cache := newTestResolver(source, nil)

	for range 2 {
		value, err := resolver.RestingHeartRate(context.Background(), resolverTestNow)
		if err != nil || value == nil || *value != 58 {
			t.Fatalf("expected 58 bpm, got %v (%v)", value, err)
		}
	}
	if source.Calls() != 2 {
		t.Fatalf("expected today to be re-queried, got %d calls", source.Calls())
	}
	if _, ok := cache.Quantity(QuantityRestingHR, resolverTestNow); ok {
		t.Fatalf("expected today's value to stay out of the cache")
	}
}

func TestMetricResolverNoSamplesIsNil(t *testing.T) {
	resolver, _ := newTestResolver(health.NewMemorySource(), nil)

	for _, metric := range models.AllMetricKinds() {
		value, err := resolver.ValueForDate(context.Background(), metric, marchAt(5, 12, 0))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", metric, err)
		}
		if value != nil {
			t.Fatalf("%s: expected nil for no data, got %v", metric, *value)
		}
	}
}

func TestMetricResolverSleepHours(t *testing.T) {
	source := health.NewMemorySource()
	source.AddCategory(
		sleepSample(health.SleepInBed, marchAt(9, 23, 0), marchAt(10, 6, 0)),
		sleepSample(health.SleepAsleepCore, marchAt(10, 1, 0), marchAt(10, 5, 0)),
		sleepSample(health.SleepAsleepDeep, marchAt(10, 23, 0), marchAt(11, 2, 0)),
		sleepSample(health.SleepAsleepCore, marchAt(11, 15, 0), marchAt(11, 16, 0)),
		sleepSample(health.SleepAsleepCore, marchAt(11, 23, 0), marchAt(12, 6, 30)),
	)
	resolver, _ := newTestResolver(source, nil)

	past, err := resolver.SleepHours(context.Background(), marchAt(10, 12, 0))
	if err != nil || past == nil || *past != 7 {
		t.Fatalf("expected 7h of overlapping asleep samples, got %v (%v)", past, err)
	}

	today, err := resolver.SleepHours(context.Background(), resolverTestNow)
	if err != nil || today == nil || *today != 7.5 {
		t.Fatalf("expected last night's 7.5h without the nap, got %v (%v)", today, err)
	}

	night, err := resolver.LastNightSleep(context.Background(), resolverTestNow)
	if err != nil || night == nil {
		t.Fatalf("expected last night sleep, got %v (%v)", night, err)
	}
	if !night.BedTime.Equal(marchAt(11, 23, 0)) || !night.WakeTime.Equal(marchAt(12, 6, 30)) {
		t.Fatalf("unexpected night %#v", night)
	}
}

func TestMetricResolverWorkoutMinutes(t *testing.T) {
	source := health.NewMemorySource()
	source.AddWorkouts(
		health.Workout{Activity: "running", Start: marchAt(8, 7, 0), End: marchAt(8, 7, 30)},
		health.Workout{Activity: "cycling", Start: marchAt(8, 18, 0), End: marchAt(8, 18, 45)},
	)
	resolver, _ := newTestResolver(source, nil)

	value, err := resolver.WorkoutMinutes(context.Background(), marchAt(8, 0, 0))
	if err != nil || value == nil || *value != 75 {
		t.Fatalf("expected 75 workout minutes, got %v (%v)", value, err)
	}
}

func TestMetricResolverCycleDayAndFlowLevel(t *testing.T) {
	source := health.NewMemorySource()
	source.AddCategory(
		health.CategorySample{Type: health.CategoryMenstrualFlow, Value: string(models.FlowLight), Start: marchAt(1, 0, 0), End: marchAt(2, 0, 0)},
		health.CategorySample{Type: health.CategoryMenstrualFlow, Value: string(models.FlowNone), Start: marchAt(8, 0, 0), End: marchAt(9, 0, 0)},
		health.CategorySample{Type: health.CategoryMenstrualFlow, Value: "mystery", Start: marchAt(9, 0, 0), End: marchAt(9, 1, 0)},
		health.CategorySample{Type: health.CategoryMenstrualFlow, Value: string(models.FlowSpotting), Start: marchAt(11, 8, 0), End: marchAt(11, 9, 0)},
		health.CategorySample{Type: health.CategoryMenstrualFlow, Value: string(models.FlowMedium), Start: marchAt(11, 12, 0), End: marchAt(11, 13, 0)},
	)
	resolver, cache := newTestResolver(source, nil)

	cycleDay, err := resolver.CycleDay(context.Background(), marchAt(10, 12, 0))
	if err != nil || cycleDay == nil || *cycleDay != 10 {
		t.Fatalf("expected cycle day 10 skipping none and unspecified samples, got %v (%v)", cycleDay, err)
	}
	if cached, ok := cache.CycleDay(marchAt(10, 0, 0)); !ok || cached != 10 {
		t.Fatalf("expected cycle day cached, got %d (ok=%v)", cached, ok)
	}

	level, err := resolver.FlowLevel(context.Background(), marchAt(11, 0, 0))
	if err != nil || level == nil || *level != models.FlowMedium {
		t.Fatalf("expected medium as highest flow, got %v (%v)", level, err)
	}
	rank, err := resolver.ValueForDate(context.Background(), models.MetricFlowLevel, marchAt(11, 0, 0))
	if err != nil || rank == nil || *rank != 3 {
		t.Fatalf("expected flow rank 3, got %v (%v)", rank, err)
	}

	unspecified, err := resolver.FlowLevel(context.Background(), marchAt(9, 0, 0))
	if err != nil || unspecified == nil || *unspecified != models.FlowUnspecified {
		t.Fatalf("expected unknown flow value mapped to unspecified, got %v (%v)", unspecified, err)
	}
}

func TestMetricResolverErrorPolicy(t *testing.T) {
	day := marchAt(5, 12, 0)

	t.Run("denied is no data", func(t *testing.T) {
		source := health.NewMemorySource()
		source.Denied = true
		resolver, _ := newTestResolver(source, fixedFallback{values: map[models.MetricKind]float64{models.MetricHRV: 50}})

		value, err := resolver.HRV(context.Background(), day)
		if err != nil || value != nil {
			t.Fatalf("expected nil without error, got %v (%v)", value, err)
		}
	})

	t.Run("unavailable uses fallback", func(t *testing.T) {
		source := health.NewMemorySource()
		source.Unavailable = true
		resolver, cache := newTestResolver(source, fixedFallback{values: map[models.MetricKind]float64{
			models.MetricHRV:       50,
			models.MetricFlowLevel: float64(models.FlowHeavy.Code()),
		}})

		value, err := resolver.HRV(context.Background(), day)
		if err != nil || value == nil || *value != 50 {
			t.Fatalf("expected fallback 50, got %v (%v)", value, err)
		}
		if _, ok := cache.Quantity(QuantityHRV, day); ok {
			t.Fatalf("expected fallback values to stay out of the cache")
		}
		level, err := resolver.FlowLevel(context.Background(), day)
		if err != nil || level == nil || *level != models.FlowHeavy {
			t.Fatalf("expected fallback heavy flow, got %v (%v)", level, err)
		}
	})

	t.Run("unavailable without fallback is no data", func(t *testing.T) {
		source := health.NewMemorySource()
		source.Unavailable = true
		resolver, _ := newTestResolver(source, nil)

		value, err := resolver.SleepHours(context.Background(), day)
		if err != nil || value != nil {
			t.Fatalf("expected nil without error, got %v (%v)", value, err)
		}
	})

	t.Run("timeout propagates", func(t *testing.T) {
		source := health.NewMemorySource()
		source.Delay = time.Second
		resolver, _ := newTestResolver(health.WithTimeout(source, 10*time.Millisecond), nil)

		_, err := resolver.WorkoutMinutes(context.Background(), day)
		if !errors.Is(err, health.ErrQueryTimeout) {
			t.Fatalf("expected ErrQueryTimeout, got %v", err)
		}
	})

	t.Run("unknown metric", func(t *testing.T) {
		resolver, _ := newTestResolver(health.NewMemorySource(), nil)

		if _, err := resolver.ValueForDate(context.Background(), models.MetricKind("steps"), day); !errors.Is(err, ErrUnknownMetric) {
			t.Fatalf("expected ErrUnknownMetric, got %v", err)
		}
	})
}

func TestMetricResolverCoalescesConcurrentMisses(t *testing.T) {
	source := health.NewMemorySource()
	source.Delay = 50 * time.Millisecond
	source.AddQuantity(health.QuantitySample{Type: health.QuantityHRV, Value: 48, Unit: health.UnitMilliseconds, Start: marchAt(3, 7, 0), End: marchAt(3, 7, 1)})
	resolver, _ := newTestResolver(source, nil)

	var wg sync.WaitGroup
	results := make([]*float64, 8)
	for index := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := resolver.HRV(context.Background(), marchAt(3, 12, 0))
			if err != nil {
				t.Errorf("HRV() unexpected error: %v", err)
				return
			}
			results[index] = value
		}()
	}
	wg.Wait()

	if source.Calls() != 1 {
		t.Fatalf("expected one provider call, got %d", source.Calls())
	}
	for index, value := range results {
		if value == nil || *value != 48 {
			t.Fatalf("result %d: expected 48, got %v", index, value)
		}
	}
}

func TestMetricResolverCurrentValueFreshness(t *testing.T) {
	source := health.NewMemorySource()
	source.AddQuantity(
		health.QuantitySample{Type: health.QuantityHRV, Value: 52, Unit: health.UnitMilliseconds, Start: marchAt(12, 6, 0), End: marchAt(12, 6, 1)},
		health.QuantitySample{Type: health.QuantityHRV, Value: 47, Unit: health.UnitMilliseconds, Start: marchAt(12, 9, 0), End: marchAt(12, 9, 1)},
	)
	resolver, _ := newTestResolver(source, nil)

	value, err := resolver.CurrentValue(context.Background(), QuantityHRV, false)
	if err != nil || value == nil || *value != 47 {
		t.Fatalf("expected most recent 47, got %v (%v)", value, err)
	}
	calls := source.Calls()

	if _, err := resolver.CurrentValue(context.Background(), QuantityHRV, false); err != nil {
		t.Fatalf("CurrentValue() unexpected error: %v", err)
	}
	if source.Calls() != calls {
		t.Fatalf("expected fresh value served from cache")
	}

	if _, err := resolver.CurrentValue(context.Background(), QuantityHRV, true); err != nil {
		t.Fatalf("CurrentValue(force) unexpected error: %v", err)
	}
	if source.Calls() != calls+1 {
		t.Fatalf("expected forced refresh to query the provider")
	}

	if _, err := resolver.CurrentValue(context.Background(), QuantitySleepHours, false); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric for sleep, got %v", err)
	}
}

func TestMetricResolverRangeAverage(t *testing.T) {
	source := health.NewMemorySource()
	source.AddQuantity(
		health.QuantitySample{Type: health.QuantityRestingHeartRate, Value: 60, Unit: health.UnitBPM, Start: marchAt(1, 7, 0), End: marchAt(1, 7, 1)},
		health.QuantitySample{Type: health.QuantityRestingHeartRate, Value: 64, Unit: health.UnitBPM, Start: marchAt(2, 7, 0), End: marchAt(2, 7, 1)},
	)
	resolver, _ := newTestResolver(source, nil)

	average, err := resolver.RangeAverage(context.Background(), QuantityRestingHR, marchAt(1, 0, 0), marchAt(3, 0, 0))
	if err != nil || average == nil || *average != 62 {
		t.Fatalf("expected average 62, got %v (%v)", average, err)
	}
}

func TestMetricResolverLastNightSleepIgnoresFollowingNight(t *testing.T) {
	source := health.NewMemorySource()
	source.AddCategory(
		sleepSample(health.SleepAsleepCore, marchAt(9, 23, 0), marchAt(10, 7, 0)),
		sleepSample(health.SleepAsleepCore, marchAt(10, 23, 0), marchAt(11, 6, 0)),
	)
	resolver, _ := newTestResolver(source, nil)

	night, err := resolver.LastNightSleep(context.Background(), marchAt(10, 0, 0))
	if err != nil || night == nil {
		t.Fatalf("expected a night ending on March 10, got %v (%v)", night, err)
	}
	if !night.BedTime.Equal(marchAt(9, 23, 0)) || !night.WakeTime.Equal(marchAt(10, 7, 0)) || night.TotalHours != 8 {
		t.Fatalf("expected 23:00-07:00 for 8h, got %#v", night)
	}

	next, err := resolver.LastNightSleep(context.Background(), marchAt(11, 0, 0))
	if err != nil || next == nil || !next.WakeTime.Equal(marchAt(11, 6, 0)) {
		t.Fatalf("expected the night ending March 11 at 06:00, got %#v (%v)", next, err)
	}
}

func TestMetricResolverSharedFetchSurvivesCancelledCaller(t *testing.T) {
	source := health.NewMemorySource()
	source.Delay = 60 * time.Millisecond
	source.AddQuantity(health.QuantitySample{Type: health.QuantityHRV, Value: 48, Unit: health.UnitMilliseconds, Start: marchAt(4, 7, 0), End: marchAt(4, 7, 1)})
	resolver, cache := newTestResolver(source, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := resolver.HRV(firstCtx, marchAt(4, 12, 0))
		firstErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	type outcome struct {
		value *float64
		err   error
	}
	second := make(chan outcome, 1)
	go func() {
		value, err := resolver.HRV(context.Background(), marchAt(4, 12, 0))
		second <- outcome{value: value, err: err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancelFirst()

	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to see context.Canceled, got %v", err)
	}
	result := <-second
	if result.err != nil || result.value == nil || *result.value != 48 {
		t.Fatalf("expected the waiting caller to get 48, got %v (%v)", result.value, result.err)
	}
	if source.Calls() != 1 {
		t.Fatalf("expected one provider call, got %d", source.Calls())
	}
	if cached, ok := cache.Quantity(QuantityHRV, marchAt(4, 0, 0)); !ok || cached != 48 {
		t.Fatalf("expected the shared fetch to populate the cache, got %v (%v)", cached, ok)
	}
}
