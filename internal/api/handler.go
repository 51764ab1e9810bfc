package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/symptomcy/internal/services"
)

const (
	DefaultTokenTTL = 30 * 24 * time.Hour

	signingKeyPurpose = "symptomcy.jwt"
	signingKeyLength  = 32
)

// Dependencies are the services the HTTP layer reads from. All are required.
type Dependencies struct {
	Analysis  *services.AnalysisService
	Metrics   *services.MetricResolver
	Baselines *services.BaselineService
	Cache     *services.MetricCache
	Location  *time.Location
}

type Handler struct {
	signingKey   []byte
	location     *time.Location
	analysis     *services.AnalysisService
	metrics      *services.MetricResolver
	baselines    *services.BaselineService
	cache        *services.MetricCache
	tokenLimiter *failureWindow
	now          func() time.Time
}

func NewHandler(secretKey string, deps Dependencies) (*Handler, error) {
	if deps.Analysis == nil || deps.Metrics == nil || deps.Baselines == nil || deps.Cache == nil {
		return nil, errors.New("api: analysis, metrics, baselines and cache are required")
	}
	signingKey, err := SigningKey(secretKey)
	if err != nil {
		return nil, err
	}

	location := deps.Location
	if location == nil {
		location = deps.Metrics.Location()
	}
	return &Handler{
		signingKey:   signingKey,
		location:     location,
		analysis:     deps.Analysis,
		metrics:      deps.Metrics,
		baselines:    deps.Baselines,
		cache:        deps.Cache,
		tokenLimiter: newFailureWindow(invalidTokenLimit, invalidTokenWindow),
		now:          time.Now,
	}, nil
}
