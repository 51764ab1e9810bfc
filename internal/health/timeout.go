package health

import (
	"context"
	"fmt"
	"time"
)

const DefaultQueryTimeout = 5 * time.Second

type timeoutSource struct {
	next    DataSource
	timeout time.Duration
}

// WithTimeout bounds every provider call. The wrapped call receives a context cancelled at
// the deadline; if it has not returned by then its result is discarded and ErrQueryTimeout
// is reported instead of an empty result.
func WithTimeout(next DataSource, timeout time.Duration) DataSource {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &timeoutSource{next: next, timeout: timeout}
}

func (source *timeoutSource) FetchQuantitySamples(ctx context.Context, quantityType QuantityType, query Query) ([]QuantitySample, error) {
	return runWithTimeout(ctx, source.timeout, "quantity "+string(quantityType), func(ctx context.Context) ([]QuantitySample, error) {
		return source.next.FetchQuantitySamples(ctx, quantityType, query)
	})
}

func (source *timeoutSource) FetchCategorySamples(ctx context.Context, categoryType CategoryType, query Query) ([]CategorySample, error) {
	return runWithTimeout(ctx, source.timeout, "category "+string(categoryType), func(ctx context.Context) ([]CategorySample, error) {
		return source.next.FetchCategorySamples(ctx, categoryType, query)
	})
}

func (source *timeoutSource) FetchWorkouts(ctx context.Context, query Query) ([]Workout, error) {
	return runWithTimeout(ctx, source.timeout, "workouts", func(ctx context.Context) ([]Workout, error) {
		return source.next.FetchWorkouts(ctx, query)
	})
}

func (source *timeoutSource) FetchStatistics(ctx context.Context, quantityType QuantityType, query Query, options StatisticsOptions) (*Statistics, error) {
	return runWithTimeout(ctx, source.timeout, "statistics "+string(quantityType), func(ctx context.Context) (*Statistics, error) {
		return source.next.FetchStatistics(ctx, quantityType, query, options)
	})
}

func (source *timeoutSource) RequestAuthorization(ctx context.Context, toShare []string, toRead []string) error {
	_, err := runWithTimeout(ctx, source.timeout, "authorization", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, source.next.RequestAuthorization(ctx, toShare, toRead)
	})
	return err
}

type timedResult[T any] struct {
	value T
	err   error
}

func runWithTimeout[T any](ctx context.Context, timeout time.Duration, operation string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make(chan timedResult[T], 1)
	go func() {
		value, err := call(queryCtx)
		results <- timedResult[T]{value: value, err: err}
	}()

	select {
	case result := <-results:
		if result.err != nil && queryCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return zero, fmt.Errorf("%w: %s after %s", ErrQueryTimeout, operation, timeout)
		}
		return result.value, result.err
	case <-queryCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, fmt.Errorf("%w: %s after %s", ErrQueryTimeout, operation, timeout)
	}
}
