package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// parseIDParam parses the numeric :id-style route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}
