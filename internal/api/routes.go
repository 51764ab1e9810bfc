package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
	app.Use(handler.NotFound)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api", handler.AuthRequired)

	analysis := api.Group("/analysis")
	analysis.Get("", handler.GetAnalysisReport)
	analysis.Get("/trends", handler.GetTrends)
	analysis.Get("/activities", handler.GetActivityCorrelations)
	analysis.Get("/patterns", handler.GetTimePatterns)
	analysis.Get("/physiology", handler.GetPhysiologicalCorrelations)
	analysis.Get("/days", handler.GetDayIntensities)

	metrics := api.Group("/metrics")
	metrics.Get("/:metric", handler.GetMetricValue)
	metrics.Get("/:metric/current", handler.GetCurrentMetric)
	metrics.Get("/:metric/average", handler.GetMetricAverage)

	api.Get("/sleep/last-night", handler.GetLastNightSleep)

	api.Get("/baselines", handler.GetBaselines)
	api.Post("/baselines/refresh", handler.RefreshBaselines)
	api.Post("/cache/clear", handler.ClearCache)
}
