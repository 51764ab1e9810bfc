package api

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/symptomcy/internal/health"
	"github.com/terraincognita07/symptomcy/internal/services"
)

const dayLayout = "2006-01-02"

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// serviceError maps domain failures onto HTTP status codes.
func serviceError(c *fiber.Ctx, operation string, err error) error {
	switch {
	case errors.Is(err, health.ErrQueryTimeout), errors.Is(err, context.DeadlineExceeded):
		return apiError(c, fiber.StatusGatewayTimeout, "health data query timed out")
	case errors.Is(err, services.ErrInvalidAnalysisWindow), errors.Is(err, services.ErrUnknownMetric):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		return apiError(c, fiber.StatusServiceUnavailable, "request cancelled")
	default:
		log.Printf("api: %s failed: %v", operation, err)
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

func parseDaysQuery(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return services.DefaultAnalysisDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid days")
	}
	return days, nil
}

// parseDayParam reads a YYYY-MM-DD day in location; blank means today.
func parseDayParam(raw string, now time.Time, location *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return services.DateAtLocation(now, location), nil
	}
	parsed, err := time.ParseInLocation(dayLayout, raw, location)
	if err != nil {
		return time.Time{}, errors.New("invalid date")
	}
	return parsed, nil
}

func parseBoolQuery(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
