package services

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/models"
	"golang.org/x/sync/errgroup"
)

const BaselineWindowDays = 30

var baselineQuantityTypes = map[QuantityMetric]health.QuantityType{
	QuantityHRV:       health.QuantityHRV,
	QuantityRestingHR: health.QuantityRestingHeartRate,
}

type Baseline struct {
	Metric      QuantityMetric `json:"metric"`
	Mean        float64        `json:"mean"`
	StdDev      float64        `json:"std_dev"`
	SampleCount int            `json:"sample_count"`
	WindowStart time.Time      `json:"window_start"`
	WindowEnd   time.Time      `json:"window_end"`
	ComputedAt  time.Time      `json:"computed_at"`
}

type BaselineStore interface {
	ListBaselines() ([]models.MetricBaseline, error)
	SaveBaseline(baseline *models.MetricBaseline) error
}

type BaselineRefresh struct {
	Updated   []QuantityMetric          `json:"updated"`
	Unchanged []QuantityMetric          `json:"unchanged"`
	Failed    map[QuantityMetric]string `json:"failed,omitempty"`
}

// BaselineService owns the rolling 30-day baselines for HRV and resting heart rate.
// Lifecycle: construct, Load persisted values, UpdateBaselines, then query.
type BaselineService struct {
	source    health.DataSource
	store     BaselineStore
	mu        sync.RWMutex
	baselines map[QuantityMetric]Baseline
	now       func() time.Time
}

func NewBaselineService(source health.DataSource, store BaselineStore) *BaselineService {
	return &BaselineService{
		source:    source,
		store:     store,
		baselines: make(map[QuantityMetric]Baseline),
		now:       time.Now,
	}
}

func (service *BaselineService) Load() error {
	if service.store == nil {
		return nil
	}
	stored, err := service.store.ListBaselines()
	if err != nil {
		return err
	}

	service.mu.Lock()
	defer service.mu.Unlock()
	for _, record := range stored {
		metric := QuantityMetric(record.Metric)
		if _, ok := baselineQuantityTypes[metric]; !ok {
			continue
		}
		service.baselines[metric] = Baseline{
			Metric:      metric,
			Mean:        record.Mean,
			StdDev:      record.StdDev,
			SampleCount: record.SampleCount,
			WindowStart: record.WindowStart,
			WindowEnd:   record.WindowEnd,
			ComputedAt:  record.ComputedAt,
		}
	}
	return nil
}

// UpdateBaselines recomputes every baseline concurrently. A failing metric is logged and keeps
// its previous baseline; it never cancels or blocks the other metric.
func (service *BaselineService) UpdateBaselines(ctx context.Context) BaselineRefresh {
	metrics := []QuantityMetric{QuantityHRV, QuantityRestingHR}
	results := make([]baselineOutcome, len(metrics))

	var group errgroup.Group
	for index, metric := range metrics {
		group.Go(func() error {
			updated, err := service.updateBaseline(ctx, metric)
			if err != nil {
				log.Printf("baselines: update %s failed: %v", metric, err)
			}
			results[index] = baselineOutcome{metric: metric, updated: updated, err: err}
			return nil
		})
	}
	_ = group.Wait()

	refresh := BaselineRefresh{
		Updated:   []QuantityMetric{},
		Unchanged: []QuantityMetric{},
	}
	for _, result := range results {
		switch {
		case result.err != nil:
			if refresh.Failed == nil {
				refresh.Failed = make(map[QuantityMetric]string)
			}
			refresh.Failed[result.metric] = result.err.Error()
		case result.updated:
			refresh.Updated = append(refresh.Updated, result.metric)
		default:
			refresh.Unchanged = append(refresh.Unchanged, result.metric)
		}
	}
	return refresh
}

type baselineOutcome struct {
	metric  QuantityMetric
	updated bool
	err     error
}

func (service *BaselineService) updateBaseline(ctx context.Context, metric QuantityMetric) (bool, error) {
	now := service.now()
	windowStart := now.AddDate(0, 0, -BaselineWindowDays)

	samples, err := service.source.FetchQuantitySamples(ctx, baselineQuantityTypes[metric], health.Query{
		Start: windowStart,
		End:   now,
		Sort:  health.SortEndDescending,
	})
	if err != nil {
		return false, err
	}

	values := make([]float64, 0, len(samples))
	for _, sample := range samples {
		value, ok := sample.Canonical()
		if !ok {
			log.Printf("baselines: skip %s sample with unit %q", metric, sample.Unit)
			continue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return false, nil
	}

	mean, stdDev := meanAndStdDev(values)
	baseline := Baseline{
		Metric:      metric,
		Mean:        mean,
		StdDev:      stdDev,
		SampleCount: len(values),
		WindowStart: windowStart,
		WindowEnd:   now,
		ComputedAt:  now,
	}

	service.mu.Lock()
	service.baselines[metric] = baseline
	service.mu.Unlock()

	if service.store != nil {
		record := &models.MetricBaseline{
			Metric:      string(metric),
			Mean:        baseline.Mean,
			StdDev:      baseline.StdDev,
			SampleCount: baseline.SampleCount,
			WindowStart: baseline.WindowStart,
			WindowEnd:   baseline.WindowEnd,
			ComputedAt:  baseline.ComputedAt,
		}
		if err := service.store.SaveBaseline(record); err != nil {
			log.Printf("baselines: persist %s failed: %v", metric, err)
		}
	}
	return true, nil
}

func (service *BaselineService) Baseline(metric QuantityMetric) (Baseline, bool) {
	service.mu.RLock()
	defer service.mu.RUnlock()
	baseline, ok := service.baselines[metric]
	return baseline, ok
}

func (service *BaselineService) Baselines() []Baseline {
	service.mu.RLock()
	result := make([]Baseline, 0, len(service.baselines))
	for _, baseline := range service.baselines {
		result = append(result, baseline)
	}
	service.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Metric < result[j].Metric })
	return result
}

// Deviation is the z-score of value against the metric's baseline.
func (service *BaselineService) Deviation(metric QuantityMetric, value float64) (float64, bool) {
	baseline, ok := service.Baseline(metric)
	if !ok || baseline.StdDev == 0 {
		return 0, false
	}
	return (value - baseline.Mean) / baseline.StdDev, true
}

// Start refreshes baselines immediately and then on every interval until ctx ends.
func (service *BaselineService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()

		service.UpdateBaselines(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				service.UpdateBaselines(ctx)
			}
		}
	}()
}

func meanAndStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	total := 0.0
	for _, value := range values {
		total += value
	}
	mean := total / float64(len(values))

	variance := 0.0
	for _, value := range values {
		variance += (value - mean) * (value - mean)
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
