package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error as the {success:false} JSON envelope the
// storefront expects.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "error": message})
}
