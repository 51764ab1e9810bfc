package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemorySource is a deterministic in-process DataSource used for tests and demo data.
type MemorySource struct {
	mu         sync.RWMutex
	quantities map[QuantityType][]QuantitySample
	categories map[CategoryType][]CategorySample
	workouts   []Workout

	// Unavailable and Denied simulate a missing provider and a refused authorization.
	Unavailable bool
	Denied      bool
	// Delay holds every fetch until it elapses or the context ends.
	Delay time.Duration

	calls atomic.Int64
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		quantities: make(map[QuantityType][]QuantitySample),
		categories: make(map[CategoryType][]CategorySample),
	}
}

func (source *MemorySource) AddQuantity(samples ...QuantitySample) {
	source.mu.Lock()
	defer source.mu.Unlock()
	for _, sample := range samples {
		source.quantities[sample.Type] = append(source.quantities[sample.Type], sample)
	}
}

func (source *MemorySource) AddCategory(samples ...CategorySample) {
	source.mu.Lock()
	defer source.mu.Unlock()
	for _, sample := range samples {
		source.categories[sample.Type] = append(source.categories[sample.Type], sample)
	}
}

func (source *MemorySource) AddWorkouts(workouts ...Workout) {
	source.mu.Lock()
	defer source.mu.Unlock()
	source.workouts = append(source.workouts, workouts...)
}

// Calls reports how many fetches reached the source.
func (source *MemorySource) Calls() int64 {
	return source.calls.Load()
}

func (source *MemorySource) FetchQuantitySamples(ctx context.Context, quantityType QuantityType, query Query) ([]QuantitySample, error) {
	if err := source.begin(ctx); err != nil {
		return nil, err
	}

	source.mu.RLock()
	matched := make([]QuantitySample, 0)
	for _, sample := range source.quantities[quantityType] {
		if overlaps(sample.Start, sample.End, query) {
			matched = append(matched, sample)
		}
	}
	source.mu.RUnlock()

	sortByOrder(matched, query.Sort, func(s QuantitySample) time.Time { return s.Start }, func(s QuantitySample) time.Time { return s.End })
	return applyLimit(matched, query.Limit), nil
}

func (source *MemorySource) FetchCategorySamples(ctx context.Context, categoryType CategoryType, query Query) ([]CategorySample, error) {
	if err := source.begin(ctx); err != nil {
		return nil, err
	}

	source.mu.RLock()
	matched := make([]CategorySample, 0)
	for _, sample := range source.categories[categoryType] {
		if overlaps(sample.Start, sample.End, query) {
			matched = append(matched, sample)
		}
	}
	source.mu.RUnlock()

	sortByOrder(matched, query.Sort, func(s CategorySample) time.Time { return s.Start }, func(s CategorySample) time.Time { return s.End })
	return applyLimit(matched, query.Limit), nil
}

func (source *MemorySource) FetchWorkouts(ctx context.Context, query Query) ([]Workout, error) {
	if err := source.begin(ctx); err != nil {
		return nil, err
	}

	source.mu.RLock()
	matched := make([]Workout, 0)
	for _, workout := range source.workouts {
		if overlaps(workout.Start, workout.End, query) {
			matched = append(matched, workout)
		}
	}
	source.mu.RUnlock()

	sortByOrder(matched, query.Sort, func(w Workout) time.Time { return w.Start }, func(w Workout) time.Time { return w.End })
	return applyLimit(matched, query.Limit), nil
}

func (source *MemorySource) FetchStatistics(ctx context.Context, quantityType QuantityType, query Query, options StatisticsOptions) (*Statistics, error) {
	query.Limit = 0
	samples, err := source.FetchQuantitySamples(ctx, quantityType, query)
	if err != nil {
		return nil, err
	}
	return BuildStatistics(samples, options), nil
}

func (source *MemorySource) RequestAuthorization(ctx context.Context, _ []string, _ []string) error {
	return source.begin(ctx)
}

func (source *MemorySource) begin(ctx context.Context) error {
	source.calls.Add(1)
	if source.Delay > 0 {
		timer := time.NewTimer(source.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if source.Unavailable {
		return ErrProviderUnavailable
	}
	if source.Denied {
		return ErrAuthorizationDenied
	}
	return ctx.Err()
}
