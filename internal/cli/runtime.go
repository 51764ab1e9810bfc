package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/terraincognita07/symptomcy/internal/db"
	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/services"
	"gorm.io/gorm"
)

// appRuntime is the wired object graph shared by every command.
type appRuntime struct {
	config    Config
	database  *gorm.DB
	repos     *db.Repositories
	profile   health.DemoProfile
	source    health.DataSource
	cache     *services.MetricCache
	resolver  *services.MetricResolver
	baselines *services.BaselineService
	analysis  *services.AnalysisService
}

func openRuntime(config Config) (*appRuntime, error) {
	database, err := db.OpenSQLite(config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	profile, err := health.LoadDemoProfile(config.DemoProfile)
	if err != nil {
		_ = db.Close(database)
		return nil, err
	}
	source, fallback, err := buildHealthSource(config, profile)
	if err != nil {
		_ = db.Close(database)
		return nil, err
	}

	repos := db.NewRepositories(database)
	cache := services.NewMetricCache(config.Location, repos.Metrics)
	resolver := services.NewMetricResolver(source, cache, fallback)
	resolver.SetCurrentValueTTL(config.CurrentValueTTL)
	baselines := services.NewBaselineService(source, repos.Metrics)
	analysis := services.NewAnalysisService(repos.Entries, repos.Activities, repos.Symptoms, resolver, services.AnalysisOptions{
		Location:  config.Location,
		Baselines: baselines,
	})

	if loaded, err := cache.Warm(); err != nil {
		log.Printf("metric cache: warm failed: %v", err)
	} else if loaded > 0 {
		log.Printf("metric cache: warmed %d day values", loaded)
	}
	if err := baselines.Load(); err != nil {
		log.Printf("baselines: load failed: %v", err)
	}

	return &appRuntime{
		config:    config,
		database:  database,
		repos:     repos,
		profile:   profile,
		source:    source,
		cache:     cache,
		resolver:  resolver,
		baselines: baselines,
		analysis:  analysis,
	}, nil
}

func (runtime *appRuntime) Close() error {
	return db.Close(runtime.database)
}

// buildHealthSource wraps the configured provider in the per-query timeout. The demo profile
// doubles as the fallback generator when HEALTH_FALLBACK=demo.
func buildHealthSource(config Config, profile health.DemoProfile) (health.DataSource, health.Fallback, error) {
	var source health.DataSource
	switch config.HealthSource {
	case sourceDemo:
		source = health.NewDemoSource(profile, config.Location)
	case sourceHTTP:
		bridge, err := health.NewHTTPSource(health.HTTPSourceConfig{
			BaseURL:           config.BridgeURL,
			Token:             config.BridgeToken,
			RequestsPerMinute: config.BridgeRPM,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("health bridge init failed: %w", err)
		}
		source = bridge
	default:
		return nil, nil, fmt.Errorf("unsupported health source %q", config.HealthSource)
	}

	timeout := config.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var fallback health.Fallback
	if config.UseDemoFallback {
		fallback = profile
	}
	return health.WithTimeout(source, timeout), fallback, nil
}
