package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

// SessionHandler manages guest session endpoints.
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type sessionRequest struct {
	Action string `json:"action"`
	Token  string `json:"token"`
}

// Handle serves both guest session actions on one endpoint:
// {action: "create"} issues a token, {action: "validate", token} checks one.
func (h *SessionHandler) Handle(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	switch req.Action {
	case "create":
		token, err := h.sessions.Create(c.IP(), c.Get("User-Agent"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true, "token": token})

	case "validate":
		if req.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "token is required")
		}
		return c.JSON(fiber.Map{"success": true, "valid": h.sessions.Validate(req.Token)})
	}

	return fiber.NewError(fiber.StatusBadRequest, "unknown action")
}
