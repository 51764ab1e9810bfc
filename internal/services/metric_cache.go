package services

import (
	"log"
	"sync"
	"time"

	"github.com/terraincognita07/symptomcy/internal/models"
)

// QuantityMetric is the subset of metric kinds cached as plain float64 values.
type QuantityMetric string

const (
	QuantityHRV            QuantityMetric = QuantityMetric(models.MetricHRV)
	QuantityRestingHR      QuantityMetric = QuantityMetric(models.MetricRestingHR)
	QuantitySleepHours     QuantityMetric = QuantityMetric(models.MetricSleepHours)
	QuantityWorkoutMinutes QuantityMetric = QuantityMetric(models.MetricWorkoutMinutes)
)

func (metric QuantityMetric) Kind() models.MetricKind {
	return models.MetricKind(metric)
}

func quantityMetricFor(kind models.MetricKind) (QuantityMetric, bool) {
	switch kind {
	case models.MetricHRV, models.MetricRestingHR, models.MetricSleepHours, models.MetricWorkoutMinutes:
		return QuantityMetric(kind), true
	default:
		return "", false
	}
}

type MetricDayStore interface {
	ListDayValues() ([]models.MetricDayValue, error)
	SaveDayValue(value models.MetricDayValue) error
	DeleteAll() error
}

type latestValue struct {
	Value float64
	At    time.Time
}

// MetricCache memoises per-day metric values. Historical days never change once cached, so
// there is no per-entry expiry: Clear is the only invalidation path.
type MetricCache struct {
	mu          sync.RWMutex
	location    *time.Location
	quantities  map[QuantityMetric]map[string]float64
	cycleDays   map[string]int
	flowLevels  map[string]models.FlowLevel
	latest      map[QuantityMetric]latestValue
	lastFetched map[models.MetricKind]time.Time
	store       MetricDayStore
	now         func() time.Time
}

func NewMetricCache(location *time.Location, store MetricDayStore) *MetricCache {
	if location == nil {
		location = time.Local
	}
	cache := &MetricCache{
		location: location,
		store:    store,
		now:      time.Now,
	}
	cache.reset()
	return cache
}

func (cache *MetricCache) reset() {
	cache.quantities = make(map[QuantityMetric]map[string]float64)
	cache.cycleDays = make(map[string]int)
	cache.flowLevels = make(map[string]models.FlowLevel)
	cache.latest = make(map[QuantityMetric]latestValue)
	cache.lastFetched = make(map[models.MetricKind]time.Time)
}

func (cache *MetricCache) Location() *time.Location {
	return cache.location
}

func (cache *MetricCache) DayKey(value time.Time) string {
	return DayKey(value, cache.location)
}

// Warm loads persisted day values into memory.
func (cache *MetricCache) Warm() (int, error) {
	if cache.store == nil {
		return 0, nil
	}
	values, err := cache.store.ListDayValues()
	if err != nil {
		return 0, err
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	loaded := 0
	for _, value := range values {
		kind := models.MetricKind(value.Metric)
		switch kind {
		case models.MetricCycleDay:
			cache.cycleDays[value.Day] = int(value.Value)
		case models.MetricFlowLevel:
			cache.flowLevels[value.Day] = models.FlowLevelFromCode(int(value.Value))
		default:
			metric, ok := quantityMetricFor(kind)
			if !ok {
				continue
			}
			cache.quantityMap(metric)[value.Day] = value.Value
		}
		loaded++
	}
	return loaded, nil
}

func (cache *MetricCache) Quantity(metric QuantityMetric, day time.Time) (float64, bool) {
	key := cache.DayKey(day)
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	value, ok := cache.quantities[metric][key]
	return value, ok
}

func (cache *MetricCache) SetQuantity(metric QuantityMetric, day time.Time, value float64) {
	key := cache.DayKey(day)
	cache.mu.Lock()
	cache.quantityMap(metric)[key] = value
	cache.mu.Unlock()
	cache.persist(metric.Kind(), key, value)
}

func (cache *MetricCache) CycleDay(day time.Time) (int, bool) {
	key := cache.DayKey(day)
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	value, ok := cache.cycleDays[key]
	return value, ok
}

func (cache *MetricCache) SetCycleDay(day time.Time, value int) {
	key := cache.DayKey(day)
	cache.mu.Lock()
	cache.cycleDays[key] = value
	cache.mu.Unlock()
	cache.persist(models.MetricCycleDay, key, float64(value))
}

func (cache *MetricCache) FlowLevel(day time.Time) (models.FlowLevel, bool) {
	key := cache.DayKey(day)
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	value, ok := cache.flowLevels[key]
	return value, ok
}

func (cache *MetricCache) SetFlowLevel(day time.Time, value models.FlowLevel) {
	key := cache.DayKey(day)
	cache.mu.Lock()
	cache.flowLevels[key] = value
	cache.mu.Unlock()
	cache.persist(models.MetricFlowLevel, key, float64(value.Code()))
}

// Latest returns the most recent sample value recorded through SetLatest.
func (cache *MetricCache) Latest(metric QuantityMetric) (float64, time.Time, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	value, ok := cache.latest[metric]
	return value.Value, value.At, ok
}

func (cache *MetricCache) SetLatest(metric QuantityMetric, value float64, at time.Time) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.latest[metric] = latestValue{Value: value, At: at}
}

// ShouldRefresh reports whether the metric's freshness window has elapsed.
func (cache *MetricCache) ShouldRefresh(metric models.MetricKind, cacheDuration time.Duration, force bool) bool {
	if force {
		return true
	}
	cache.mu.RLock()
	lastFetch, ok := cache.lastFetched[metric]
	cache.mu.RUnlock()
	if !ok {
		return true
	}
	return cache.now().Sub(lastFetch) >= cacheDuration
}

func (cache *MetricCache) MarkFetched(metric models.MetricKind, at time.Time) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.lastFetched[metric] = at
}

func (cache *MetricCache) Clear() {
	cache.mu.Lock()
	cache.reset()
	cache.mu.Unlock()

	if cache.store == nil {
		return
	}
	if err := cache.store.DeleteAll(); err != nil {
		log.Printf("metric cache: clear persisted values failed: %v", err)
	}
}

func (cache *MetricCache) quantityMap(metric QuantityMetric) map[string]float64 {
	values, ok := cache.quantities[metric]
	if !ok {
		values = make(map[string]float64)
		cache.quantities[metric] = values
	}
	return values
}

func (cache *MetricCache) persist(kind models.MetricKind, key string, value float64) {
	if cache.store == nil {
		return
	}
	err := cache.store.SaveDayValue(models.MetricDayValue{
		Metric:    string(kind),
		Day:       key,
		Value:     value,
		CreatedAt: cache.now(),
	})
	if err != nil {
		log.Printf("metric cache: persist %s %s failed: %v", kind, key, err)
	}
}
