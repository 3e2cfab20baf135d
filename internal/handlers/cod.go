package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

// CODHandler serves cash-on-delivery quotes.
type CODHandler struct {
	config services.CODConfig
}

// NewCODHandler constructs CODHandler.
func NewCODHandler(config services.CODConfig) *CODHandler {
	return &CODHandler{config: config}
}

// Quote computes COD fee and delivery estimate for an order value and region.
func (h *CODHandler) Quote(c *fiber.Ctx) error {
	value, err := strconv.ParseFloat(c.Query("value"), 64)
	if err != nil || value < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order value")
	}

	quote := services.QuoteCOD(value, c.Query("region"), h.config)
	return c.JSON(fiber.Map{"success": true, "data": quote})
}
