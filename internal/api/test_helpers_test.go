package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/symptomcy/internal/db"
	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/models"
	"github.com/terraincognita07/symptomcy/internal/services"
)

const testSecretKey = "test-secret-key-with-at-least-32-characters"

var testNow = time.Date(2026, time.March, 30, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	app     *fiber.App
	handler *Handler
	repos   *db.Repositories
	token   string
}

func newTestEnv(t *testing.T, source health.DataSource) *testEnv {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "symptomcy-test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })

	repos := db.NewRepositories(database)
	cache := services.NewMetricCache(time.UTC, repos.Metrics)
	resolver := services.NewMetricResolver(source, cache, nil)
	baselines := services.NewBaselineService(source, repos.Metrics)
	analysis := services.NewAnalysisService(repos.Entries, repos.Activities, repos.Symptoms, resolver, services.AnalysisOptions{
		Location:  time.UTC,
		Baselines: baselines,
		Now:       func() time.Time { return testNow },
	})

	handler, err := NewHandler(testSecretKey, Dependencies{
		Analysis:  analysis,
		Metrics:   resolver,
		Baselines: baselines,
		Cache:     cache,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("NewHandler() unexpected error: %v", err)
	}
	handler.now = func() time.Time { return testNow }

	token, err := BuildToken(handler.signingKey, "owner", time.Hour, testNow)
	if err != nil {
		t.Fatalf("BuildToken() unexpected error: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	return &testEnv{app: app, handler: handler, repos: repos, token: token}
}

func (env *testEnv) request(t *testing.T, method string, path string, token string) *http.Response {
	t.Helper()

	request := httptest.NewRequest(method, path, nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return response
}

func (env *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	return env.request(t, http.MethodGet, path, env.token)
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode %q: %v", string(body), err)
	}
}

func (env *testEnv) seedHeadaches(t *testing.T) {
	t.Helper()

	if _, err := env.repos.Symptoms.EnsureBuiltins(); err != nil {
		t.Fatalf("EnsureBuiltins() unexpected error: %v", err)
	}
	headache, err := env.repos.Symptoms.FindByName("Headache")
	if err != nil {
		t.Fatalf("find headache: %v", err)
	}
	for _, day := range []int{20, 22, 27, 29} {
		entry := models.SymptomEntry{
			SymptomTypeID: headache.ID,
			Severity:      3,
			CreatedAt:     time.Date(2026, time.March, day, 9, 0, 0, 0, time.UTC),
		}
		if err := env.repos.Entries.Create(&entry); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}
}

func newRequest(method string, path string, authorization string) *http.Request {
	request := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	return request
}
