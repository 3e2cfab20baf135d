package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
)

// CheckoutService turns a cart snapshot into a persisted order.
type CheckoutService struct {
	db *gorm.DB
}

// NewCheckoutService constructs CheckoutService.
func NewCheckoutService(db *gorm.DB) *CheckoutService {
	return &CheckoutService{db: db}
}

// CartLine is one line of the cart snapshot handed to CreateOrder. SalePrice
// wins over RegularPrice when both are set; a line with neither prices at 0.
type CartLine struct {
	ProductID    *uuid.UUID
	VariantID    *uuid.UUID
	ProductName  string
	ProductSize  string
	ProductColor string
	ProductImage string
	Quantity     int
	SalePrice    *float64
	RegularPrice *float64
}

// CreateOrderInput is the order metadata for CreateOrder. OrderNumber must be
// supplied pre-generated and unique; the transaction does not mint it. UserID
// and GuestEmail identify the payer, exactly one of them set.
type CreateOrderInput struct {
	OrderNumber     string
	UserID          *uuid.UUID
	GuestEmail      string
	PaymentMethod   string
	ShippingCost    float64
	ShippingAddress models.ShippingAddress
	Cart            []CartLine
}

// UnitPrice resolves the effective price of a cart line.
func (l CartLine) UnitPrice() float64 {
	if l.SalePrice != nil {
		return *l.SalePrice
	}
	if l.RegularPrice != nil {
		return *l.RegularPrice
	}
	return 0
}

// CreateOrder persists one Order row and one OrderItem row per cart line,
// each item carrying a frozen product snapshot, inside a single transaction.
// Inventory deduction is not part of this transaction; it is dispatched by
// the caller after the commit and may fail independently.
func (s *CheckoutService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.OrderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if (input.UserID == nil) == (input.GuestEmail == "") {
		return nil, fmt.Errorf("exactly one of user id or guest email is required")
	}
	if len(input.Cart) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}
	for i, line := range input.Cart {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("cart line %d: quantity must be positive", i)
		}
	}

	order := models.Order{
		OrderNumber:     input.OrderNumber,
		UserID:          input.UserID,
		GuestEmail:      input.GuestEmail,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		Status:          models.OrderStatusPending,
		ShippingCost:    input.ShippingCost,
		ShippingAddress: input.ShippingAddress,
	}

	var subtotal float64
	for _, line := range input.Cart {
		unitPrice := line.UnitPrice()
		item := models.OrderItem{
			ProductID:        line.ProductID,
			ProductVariantID: line.VariantID,
			ProductName:      line.ProductName,
			ProductSize:      line.ProductSize,
			ProductColor:     line.ProductColor,
			ProductImage:     line.ProductImage,
			Quantity:         line.Quantity,
			UnitPrice:        unitPrice,
			TotalPrice:       unitPrice * float64(line.Quantity),
		}
		subtotal += item.TotalPrice
		order.Items = append(order.Items, item)
	}

	order.Subtotal = subtotal
	order.TotalAmount = subtotal + order.ShippingCost

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, err
	}

	return &order, nil
}

// GetByNumber loads an order with its items for the guest tracking page. The
// caller must supply the guest email that placed the order; the order number
// alone is guessable and never enough to read an order.
func (s *CheckoutService) GetByNumber(orderNumber, guestEmail string) (*models.Order, error) {
	if guestEmail == "" {
		return nil, ErrOrderNotFound
	}

	var order models.Order
	err := s.db.Preload("Items").
		Where("order_number = ? AND guest_email = ?", orderNumber, guestEmail).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
