package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/middleware"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/queue"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/services"
)

// CheckoutHandler turns carts into orders.
type CheckoutHandler struct {
	checkout   *services.CheckoutService
	sessions   *services.SessionService
	dispatcher queue.Dispatcher
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(checkout *services.CheckoutService, sessions *services.SessionService, dispatcher queue.Dispatcher) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, sessions: sessions, dispatcher: dispatcher}
}

type checkoutItemRequest struct {
	ProductID    string   `json:"product_id"`
	VariantID    string   `json:"variant_id"`
	ProductName  string   `json:"product_name"`
	ProductSize  string   `json:"product_size"`
	ProductColor string   `json:"product_color"`
	ProductImage string   `json:"product_image"`
	Quantity     int      `json:"quantity"`
	SalePrice    *float64 `json:"sale_price"`
	RegularPrice *float64 `json:"regular_price"`
}

type checkoutRequest struct {
	OrderNumber     string                 `json:"order_number"`
	UserID          string                 `json:"user_id"`
	GuestEmail      string                 `json:"guest_email"`
	SessionToken    string                 `json:"session_token"`
	PaymentMethod   string                 `json:"payment_method"`
	ShippingCost    float64                `json:"shipping_cost"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	Items           []checkoutItemRequest  `json:"items"`
}

// Checkout creates an order from a cart snapshot and dispatches the
// best-effort side effects: inventory deduction and an analytics event.
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
	}
	if req.PaymentMethod == "" {
		return fiber.NewError(fiber.StatusBadRequest, "payment method is required")
	}

	input := services.CreateOrderInput{
		OrderNumber:     req.OrderNumber,
		PaymentMethod:   req.PaymentMethod,
		ShippingCost:    req.ShippingCost,
		ShippingAddress: req.ShippingAddress,
	}

	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}
		input.UserID = &id
	} else {
		input.GuestEmail = req.GuestEmail
		if req.GuestEmail == "" {
			return fiber.NewError(fiber.StatusBadRequest, "guest email is required")
		}
		// Session validation fails open inside the service; a known-bad
		// token is still rejected.
		if req.SessionToken != "" && !h.sessions.Validate(req.SessionToken) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid guest session")
		}
	}

	if input.OrderNumber == "" {
		input.OrderNumber = generateOrderNumber()
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "item quantity must be positive")
		}
		line := services.CartLine{
			ProductName:  item.ProductName,
			ProductSize:  item.ProductSize,
			ProductColor: item.ProductColor,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			SalePrice:    item.SalePrice,
			RegularPrice: item.RegularPrice,
		}
		if item.ProductID != "" {
			id, err := uuid.Parse(item.ProductID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
			}
			line.ProductID = &id
		}
		if item.VariantID != "" {
			// A mangled variant id would silently detach the line from
			// the movement ledger.
			id, err := uuid.Parse(item.VariantID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid variant id")
			}
			line.VariantID = &id
		}
		input.Cart = append(input.Cart, line)
	}

	order, err := h.checkout.CreateOrder(input)
	if err != nil {
		middleware.RecordOrderOperation("create", "error")
		if errors.Is(err, services.ErrDuplicateOrderNumber) {
			return fiber.NewError(fiber.StatusConflict, "order number already exists")
		}
		return err
	}

	middleware.RecordOrderOperation("create", "success")
	h.dispatchSideEffects(order, req.SessionToken)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"subtotal":     order.Subtotal,
			"total_amount": order.TotalAmount,
			"created_at":   order.CreatedAt,
		},
	})
}

// GetOrder returns one order by number for the guest tracking page.
func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order number is required")
	}
	email := c.Query("email")
	if email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email is required")
	}

	order, err := h.checkout.GetByNumber(number, email)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *CheckoutHandler) dispatchSideEffects(order *models.Order, sessionToken string) {
	payload, err := json.Marshal(services.InventoryTaskPayload{OrderID: order.ID})
	if err == nil {
		if err := h.dispatcher.Enqueue(queue.Task{Type: queue.TaskInventoryDeduct, Payload: payload}); err != nil {
			log.Printf("[Checkout] Deduct dispatch for order %s failed: %v", order.ID, err)
		}
	}

	eventData, _ := json.Marshal(fiber.Map{
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
		"item_count":   len(order.Items),
	})
	event, err := json.Marshal(services.AnalyticsEvent{
		EventType: "order_created",
		EventData: eventData,
		SessionID: sessionToken,
	})
	if err == nil {
		if err := h.dispatcher.Enqueue(queue.Task{Type: queue.TaskAnalyticsEvent, Payload: event}); err != nil {
			log.Printf("[Checkout] Analytics dispatch for order %s failed: %v", order.ID, err)
		}
	}
}

func generateOrderNumber() string {
	return fmt.Sprintf("SL-%d", time.Now().UnixNano()%1_000_000_000_000)
}
