package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTPSource reads samples from a device-side bridge that exports the platform health store
// as JSON. Requests are rate limited so a full backfill does not flood the bridge.
type HTTPSource struct {
	client      *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	token       string
}

type HTTPSourceConfig struct {
	BaseURL           string
	Token             string
	RequestsPerMinute int
	Client            *http.Client
}

func NewHTTPSource(config HTTPSourceConfig) (*HTTPSource, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: bridge URL is not configured", ErrProviderUnavailable)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse bridge URL: %w", err)
	}

	perMinute := config.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPSource{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 10),
		baseURL:     baseURL,
		token:       config.Token,
	}, nil
}

type quantityResponse struct {
	Samples []QuantitySample `json:"samples"`
}

type categoryResponse struct {
	Samples []CategorySample `json:"samples"`
}

type workoutResponse struct {
	Workouts []Workout `json:"workouts"`
}

type authorizationRequest struct {
	ToShare []string `json:"to_share"`
	ToRead  []string `json:"to_read"`
}

func (source *HTTPSource) FetchQuantitySamples(ctx context.Context, quantityType QuantityType, query Query) ([]QuantitySample, error) {
	var response quantityResponse
	if err := source.get(ctx, "/quantity/"+url.PathEscape(string(quantityType)), queryValues(query), &response); err != nil {
		return nil, err
	}
	for index := range response.Samples {
		response.Samples[index].Type = quantityType
	}
	return response.Samples, nil
}

func (source *HTTPSource) FetchCategorySamples(ctx context.Context, categoryType CategoryType, query Query) ([]CategorySample, error) {
	var response categoryResponse
	if err := source.get(ctx, "/category/"+url.PathEscape(string(categoryType)), queryValues(query), &response); err != nil {
		return nil, err
	}
	for index := range response.Samples {
		response.Samples[index].Type = categoryType
	}
	return response.Samples, nil
}

func (source *HTTPSource) FetchWorkouts(ctx context.Context, query Query) ([]Workout, error) {
	var response workoutResponse
	if err := source.get(ctx, "/workouts", queryValues(query), &response); err != nil {
		return nil, err
	}
	return response.Workouts, nil
}

func (source *HTTPSource) FetchStatistics(ctx context.Context, quantityType QuantityType, query Query, options StatisticsOptions) (*Statistics, error) {
	params := queryValues(query)
	params.Set("options", statisticsOptionNames(options))

	var response Statistics
	if err := source.get(ctx, "/statistics/"+url.PathEscape(string(quantityType)), params, &response); err != nil {
		return nil, err
	}
	if response.SampleCount == 0 {
		return nil, nil
	}
	return &response, nil
}

func (source *HTTPSource) RequestAuthorization(ctx context.Context, toShare []string, toRead []string) error {
	body, err := json.Marshal(authorizationRequest{ToShare: toShare, ToRead: toRead})
	if err != nil {
		return fmt.Errorf("encode authorization request: %w", err)
	}
	return source.do(ctx, http.MethodPost, "/authorization", nil, bytes.NewReader(body), nil)
}

func (source *HTTPSource) get(ctx context.Context, endpoint string, params url.Values, target any) error {
	return source.do(ctx, http.MethodGet, endpoint, params, nil, target)
}

func (source *HTTPSource) do(ctx context.Context, method string, endpoint string, params url.Values, body io.Reader, target any) error {
	if err := source.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	requestURL := source.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if source.token != "" {
		req.Header.Set("Authorization", "Bearer "+source.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := source.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && !urlErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthorizationDenied
	case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusNotImplemented:
		return ErrProviderUnavailable
	case resp.StatusCode >= http.StatusBadRequest:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bridge status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode bridge response: %w", err)
	}
	return nil
}

func queryValues(query Query) url.Values {
	params := url.Values{}
	if !query.Start.IsZero() {
		params.Set("start", query.Start.UTC().Format(time.RFC3339))
	}
	if !query.End.IsZero() {
		params.Set("end", query.End.UTC().Format(time.RFC3339))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	switch query.Sort {
	case SortStartAscending:
		params.Set("sort", "start_asc")
	case SortStartDescending:
		params.Set("sort", "start_desc")
	case SortEndDescending:
		params.Set("sort", "end_desc")
	}
	return params
}

func statisticsOptionNames(options StatisticsOptions) string {
	names := make([]string, 0, 4)
	if options&StatisticsAverage != 0 {
		names = append(names, "average")
	}
	if options&StatisticsMinimum != 0 {
		names = append(names, "minimum")
	}
	if options&StatisticsMaximum != 0 {
		names = append(names, "maximum")
	}
	if options&StatisticsSum != 0 {
		names = append(names, "sum")
	}
	return strings.Join(names, ",")
}
