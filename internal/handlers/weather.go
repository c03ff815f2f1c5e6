package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsefit/fitcrm-backend/internal/services"
)

// WeatherHandler proxies current conditions for outdoor session planning.
type WeatherHandler struct {
	weather *services.WeatherClient
}

// NewWeatherHandler creates a new weather handler.
func NewWeatherHandler(weather *services.WeatherClient) *WeatherHandler {
	return &WeatherHandler{weather: weather}
}

// Get returns current weather at the given coordinates.
func (h *WeatherHandler) Get(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "lat and lon query parameters are required",
		})
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Coordinates out of range",
		})
	}

	current, err := h.weather.Current(lat, lon)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Weather service unavailable",
		})
	}
	return c.JSON(current)
}
