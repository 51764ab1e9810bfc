package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/terraincognita07/symptomcy/internal/security"
)

const (
	sourceDemo = "demo"
	sourceHTTP = "http"
)

type Config struct {
	DBPath           string
	Location         *time.Location
	Port             string
	HealthSource     string
	BridgeURL        string
	BridgeToken      string
	BridgeRPM        int
	UseDemoFallback  bool
	DemoProfile      string
	QueryTimeout     time.Duration
	BaselineInterval time.Duration
	CurrentValueTTL  time.Duration
}

// loadDotEnv reads each existing file without overriding variables already set.
func loadDotEnv(paths ...string) error {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
		log.Printf("config: loaded env from %s", path)
	}
	return nil
}

func loadConfig(dbFlag string, tzFlag string) (Config, error) {
	timeout, err := resolveDuration("HEALTH_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	interval, err := resolveDuration("BASELINE_REFRESH_INTERVAL", 6*time.Hour)
	if err != nil {
		return Config{}, err
	}
	ttl, err := resolveDuration("METRIC_CURRENT_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	rpm, err := strconv.Atoi(getEnv("HEALTH_BRIDGE_RPM", "120"))
	if err != nil || rpm <= 0 {
		return Config{}, fmt.Errorf("HEALTH_BRIDGE_RPM must be a positive integer")
	}

	source := strings.ToLower(strings.TrimSpace(getEnv("HEALTH_SOURCE", sourceDemo)))
	if source != sourceDemo && source != sourceHTTP {
		return Config{}, fmt.Errorf("unsupported HEALTH_SOURCE %q (want %s or %s)", source, sourceDemo, sourceHTTP)
	}

	dbPath := strings.TrimSpace(dbFlag)
	if dbPath == "" {
		dbPath = getEnv("DB_PATH", filepath.Join("data", "symptomcy.db"))
	}
	tz := strings.TrimSpace(tzFlag)
	if tz == "" {
		tz = getEnv("TZ", "UTC")
	}

	return Config{
		DBPath:           dbPath,
		Location:         mustLoadLocation(tz),
		Port:             getEnv("PORT", "8080"),
		HealthSource:     source,
		BridgeURL:        getEnv("HEALTH_BRIDGE_URL", ""),
		BridgeToken:      getEnv("HEALTH_BRIDGE_TOKEN", ""),
		BridgeRPM:        rpm,
		UseDemoFallback:  strings.EqualFold(getEnv("HEALTH_FALLBACK", "none"), sourceDemo),
		DemoProfile:      getEnv("DEMO_PROFILE", ""),
		QueryTimeout:     timeout,
		BaselineInterval: interval,
		CurrentValueTTL:  ttl,
	}, nil
}

func resolveSecretKey() (string, error) {
	return security.ValidateSecret(os.Getenv("SECRET_KEY"))
}

func resolvePort() (string, error) {
	raw := getEnv("PORT", "8080")
	port, err := strconv.Atoi(raw)
	if err != nil {
		return "", fmt.Errorf("PORT must be numeric, got %q", raw)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}
	return strconv.Itoa(port), nil
}

func resolveDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return value, nil
}

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("config: invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
