package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/models"
)

type stubBaselineStore struct {
	stored  []models.MetricBaseline
	saved   []models.MetricBaseline
	listErr error
}

func (stub *stubBaselineStore) ListBaselines() ([]models.MetricBaseline, error) {
	if stub.listErr != nil {
		return nil, stub.listErr
	}
	result := make([]models.MetricBaseline, len(stub.stored))
	copy(result, stub.stored)
	return result, nil
}

func (stub *stubBaselineStore) SaveBaseline(baseline *models.MetricBaseline) error {
	stub.saved = append(stub.saved, *baseline)
	return nil
}

// quantityFailureSource fails one quantity type and serves the rest from memory.
type quantityFailureSource struct {
	*health.MemorySource
	failing health.QuantityType
	err     error
}

func (source *quantityFailureSource) FetchQuantitySamples(ctx context.Context, quantityType health.QuantityType, query health.Query) ([]health.QuantitySample, error) {
	if quantityType == source.failing {
		return nil, source.err
	}
	return source.MemorySource.FetchQuantitySamples(ctx, quantityType, query)
}

var baselineTestNow = time.Date(2026, time.April, 15, 9, 0, 0, 0, time.UTC)

func quantityAt(quantityType health.QuantityType, value float64, unit string, daysAgo int) health.QuantitySample {
	at := baselineTestNow.AddDate(0, 0, -daysAgo)
	return health.QuantitySample{Type: quantityType, Value: value, Unit: unit, Start: at, End: at.Add(time.Minute)}
}

func TestBaselineServiceComputesMeanAndSpread(t *testing.T) {
	source := health.NewMemorySource()
	source.AddQuantity(
		quantityAt(health.QuantityHRV, 40, health.UnitMilliseconds, 3),
		quantityAt(health.QuantityHRV, 0.05, health.UnitSeconds, 10),
		quantityAt(health.QuantityHRV, 60, health.UnitMilliseconds, 20),
		quantityAt(health.QuantityHRV, 500, health.UnitMilliseconds, 45),
	)
	store := &stubBaselineStore{}
	service := NewBaselineService(source, store)
	service.now = func() time.Time { return baselineTestNow }

	refresh := service.UpdateBaselines(context.Background())
	if len(refresh.Updated) != 1 || refresh.Updated[0] != QuantityHRV {
		t.Fatalf("expected only HRV updated, got %#v", refresh)
	}
	if len(refresh.Unchanged) != 1 || refresh.Unchanged[0] != QuantityRestingHR {
		t.Fatalf("expected resting HR unchanged without samples, got %#v", refresh)
	}

	baseline, ok := service.Baseline(QuantityHRV)
	if !ok {
		t.Fatalf("expected HRV baseline")
	}
	if math.Abs(baseline.Mean-50) > 1e-9 || baseline.SampleCount != 3 {
		t.Fatalf("expected mean 50 over 3 samples, got %#v", baseline)
	}
	if math.Abs(baseline.StdDev-math.Sqrt(200.0/3.0)) > 1e-9 {
		t.Fatalf("expected population std-dev, got %v", baseline.StdDev)
	}
	if len(store.saved) != 1 || store.saved[0].Metric != string(QuantityHRV) {
		t.Fatalf("expected HRV baseline persisted, got %#v", store.saved)
	}

	if deviation, ok := service.Deviation(QuantityHRV, 50+baseline.StdDev); !ok || math.Abs(deviation-1) > 1e-9 {
		t.Fatalf("expected z-score 1, got %v (ok=%v)", deviation, ok)
	}
	if _, ok := service.Deviation(QuantityRestingHR, 60); ok {
		t.Fatalf("expected no deviation without a baseline")
	}
}

func TestBaselineServiceKeepsPreviousBaselineOnEmptyWindow(t *testing.T) {
	store := &stubBaselineStore{stored: []models.MetricBaseline{
		{Metric: string(QuantityRestingHR), Mean: 58, StdDev: 2, SampleCount: 30},
		{Metric: "steps", Mean: 9000},
	}}
	service := NewBaselineService(health.NewMemorySource(), store)
	service.now = func() time.Time { return baselineTestNow }

	if err := service.Load(); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if got := len(service.Baselines()); got != 1 {
		t.Fatalf("expected one known baseline loaded, got %d", got)
	}

	service.UpdateBaselines(context.Background())

	baseline, ok := service.Baseline(QuantityRestingHR)
	if !ok || baseline.Mean != 58 || baseline.SampleCount != 30 {
		t.Fatalf("expected previous resting HR baseline kept, got %#v", baseline)
	}
	if len(store.saved) != 0 {
		t.Fatalf("expected nothing persisted, got %#v", store.saved)
	}
}

func TestBaselineServiceIsolatesMetricFailures(t *testing.T) {
	memory := health.NewMemorySource()
	memory.AddQuantity(
		quantityAt(health.QuantityRestingHeartRate, 1, health.UnitCountPerSec, 2),
		quantityAt(health.QuantityRestingHeartRate, 62, health.UnitBPM, 4),
	)
	source := &quantityFailureSource{MemorySource: memory, failing: health.QuantityHRV, err: health.ErrQueryTimeout}
	service := NewBaselineService(source, nil)
	service.now = func() time.Time { return baselineTestNow }

	refresh := service.UpdateBaselines(context.Background())

	if _, ok := refresh.Failed[QuantityHRV]; !ok {
		t.Fatalf("expected HRV failure reported, got %#v", refresh)
	}
	if len(refresh.Updated) != 1 || refresh.Updated[0] != QuantityRestingHR {
		t.Fatalf("expected resting HR updated despite HRV failure, got %#v", refresh)
	}
	baseline, _ := service.Baseline(QuantityRestingHR)
	if baseline.Mean != 61 {
		t.Fatalf("expected converted mean 61 bpm, got %v", baseline.Mean)
	}
	if _, ok := service.Baseline(QuantityHRV); ok {
		t.Fatalf("expected no HRV baseline after failure")
	}
}

func TestBaselineServiceLoadPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("database is locked")
	service := NewBaselineService(health.NewMemorySource(), &stubBaselineStore{listErr: storeErr})

	if err := service.Load(); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
