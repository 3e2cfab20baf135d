package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/config"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/middleware"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/utils"
)

// AdminHandler manages the order-administration surface.
type AdminHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	status *services.StatusService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, cfg *config.Config, status *services.StatusService) *AdminHandler {
	return &AdminHandler{db: db, cfg: cfg, status: status}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an admin and returns a JWT.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var admin models.AdminUser
	if err := h.db.First(&admin, "email = ?", req.Email).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}
	if !utils.CheckPassword(admin.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, admin.ID, h.cfg.TokenExpires)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "token": token})
}

type statusRequest struct {
	OrderID     string `json:"order_id"`
	NewStatus   string `json:"new_status"`
	Notes       string `json:"notes"`
	AdminUserID string `json:"admin_user_id"`
}

// UpdateStatus applies one status transition to an order.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	actorID := resolveActor(c, req.AdminUserID)

	order, err := h.status.Transition(orderID, models.OrderStatus(req.NewStatus), req.Notes, actorID)
	if err != nil {
		middleware.RecordOrderOperation("status_update", "error")
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrInvalidStatus):
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		case errors.Is(err, services.ErrTerminalStatus),
			errors.Is(err, services.ErrTransitionNotAllowed):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, services.ErrStatusConflict):
			return fiber.NewError(fiber.StatusConflict, "order status changed concurrently, retry")
		}
		return err
	}

	middleware.RecordOrderOperation("status_update", "success")

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"shipped_at":   order.ShippedAt,
			"delivered_at": order.DeliveredAt,
			"updated_at":   order.UpdatedAt,
		},
	})
}

// ListOrders returns a paginated order listing with an optional status filter.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrderHistory returns the audit trail for one order.
func (h *AdminHandler) GetOrderHistory(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	history, err := h.status.History(orderID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": history})
}

// resolveActor prefers the JWT identity; the body admin_user_id remains a
// fallback for trusted internal callers.
func resolveActor(c *fiber.Ctx, bodyID string) *uuid.UUID {
	if id, ok := middleware.GetCurrentAdminID(c); ok {
		return &id
	}
	if bodyID != "" {
		if id, err := uuid.Parse(bodyID); err == nil {
			return &id
		}
	}
	return nil
}
