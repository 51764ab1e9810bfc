package api

import (
	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) GetAnalysisReport(c *fiber.Ctx) error {
	days, err := parseDaysQuery(c.Query("days"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	report, err := handler.analysis.BuildReport(c.UserContext(), days)
	if err != nil {
		return serviceError(c, "build analysis report", err)
	}
	return c.JSON(report)
}

func (handler *Handler) GetTrends(c *fiber.Ctx) error {
	days, err := parseDaysQuery(c.Query("days"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	trends, err := handler.analysis.Trends(days)
	if err != nil {
		return serviceError(c, "symptom trends", err)
	}
	return c.JSON(fiber.Map{"days": days, "trends": trends})
}

func (handler *Handler) GetActivityCorrelations(c *fiber.Ctx) error {
	days, err := parseDaysQuery(c.Query("days"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	correlations, err := handler.analysis.ActivityCorrelations(days)
	if err != nil {
		return serviceError(c, "activity correlations", err)
	}
	return c.JSON(fiber.Map{"days": days, "correlations": correlations})
}

func (handler *Handler) GetTimePatterns(c *fiber.Ctx) error {
	days, err := parseDaysQuery(c.Query("days"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	patterns, err := handler.analysis.TimePatterns(days)
	if err != nil {
		return serviceError(c, "time patterns", err)
	}
	return c.JSON(fiber.Map{"days": days, "patterns": patterns})
}

func (handler *Handler) GetPhysiologicalCorrelations(c *fiber.Ctx) error {
	days, err := parseDaysQuery(c.Query("days"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	correlations, err := handler.analysis.PhysiologicalCorrelations(c.UserContext(), days)
	if err != nil {
		return serviceError(c, "physiological correlations", err)
	}
	return c.JSON(fiber.Map{"days": days, "correlations": correlations})
}

func (handler *Handler) GetDayIntensities(c *fiber.Ctx) error {
	days, err := parseDaysQuery(c.Query("days"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	intensities, err := handler.analysis.DayIntensities(days)
	if err != nil {
		return serviceError(c, "day intensities", err)
	}
	return c.JSON(fiber.Map{"days": days, "intensities": intensities})
}
