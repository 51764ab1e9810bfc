package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/symptomcy/internal/models"
	"github.com/terraincognita07/symptomcy/internal/services"
)

func (handler *Handler) GetMetricValue(c *fiber.Ctx) error {
	kind, ok := models.ParseMetricKind(strings.TrimSpace(c.Params("metric")))
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "unknown metric")
	}
	day, err := parseDayParam(c.Query("date"), handler.now(), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := fiber.Map{"metric": kind, "date": day.Format(dayLayout)}
	if kind == models.MetricFlowLevel {
		level, err := handler.metrics.FlowLevel(c.UserContext(), day)
		if err != nil {
			return serviceError(c, "resolve flow level", err)
		}
		payload["value"] = nil
		payload["level"] = nil
		if level != nil {
			payload["value"] = level.Rank()
			payload["level"] = *level
		}
		return c.JSON(payload)
	}

	value, err := handler.metrics.ValueForDate(c.UserContext(), kind, day)
	if err != nil {
		return serviceError(c, fmt.Sprintf("resolve %s", kind), err)
	}
	payload["value"] = value
	return c.JSON(payload)
}

func (handler *Handler) GetCurrentMetric(c *fiber.Ctx) error {
	metric := services.QuantityMetric(strings.TrimSpace(c.Params("metric")))
	value, err := handler.metrics.CurrentValue(c.UserContext(), metric, parseBoolQuery(c.Query("force")))
	if err != nil {
		return serviceError(c, fmt.Sprintf("current %s", metric), err)
	}
	return c.JSON(fiber.Map{"metric": metric, "value": value})
}

func (handler *Handler) GetMetricAverage(c *fiber.Ctx) error {
	metric := services.QuantityMetric(strings.TrimSpace(c.Params("metric")))
	now := handler.now()
	from, err := parseDayParam(c.Query("from"), now, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	to, err := parseDayParam(c.Query("to"), now, handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	if to.Before(from) {
		return apiError(c, fiber.StatusBadRequest, "from must not be after to")
	}

	_, end := services.DayRange(to, handler.location)
	value, err := handler.metrics.RangeAverage(c.UserContext(), metric, from, end)
	if err != nil {
		return serviceError(c, fmt.Sprintf("average %s", metric), err)
	}
	return c.JSON(fiber.Map{
		"metric": metric,
		"from":   from.Format(dayLayout),
		"to":     to.Format(dayLayout),
		"value":  value,
	})
}

func (handler *Handler) GetLastNightSleep(c *fiber.Ctx) error {
	day, err := parseDayParam(c.Query("date"), handler.now(), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	night, err := handler.metrics.LastNightSleep(c.UserContext(), day)
	if err != nil {
		return serviceError(c, "last night sleep", err)
	}
	return c.JSON(fiber.Map{"date": day.Format(dayLayout), "sleep": night})
}

func (handler *Handler) GetBaselines(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"baselines": handler.baselines.Baselines()})
}

func (handler *Handler) RefreshBaselines(c *fiber.Ctx) error {
	return c.JSON(handler.baselines.UpdateBaselines(c.UserContext()))
}

func (handler *Handler) ClearCache(c *fiber.Ctx) error {
	handler.cache.Clear()
	return c.JSON(fiber.Map{"ok": true})
}
