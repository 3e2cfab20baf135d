package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ValidOrderStatus reports whether s is one of the known lifecycle states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// TerminalOrderStatus reports whether s accepts no further transitions.
func TerminalOrderStatus(s OrderStatus) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ShippingAddress is embedded into Order rather than kept as loose JSON so
// shape drift is caught at compile time.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	AddressLine1  string `json:"address_line1"`
	AddressLine2  string `json:"address_line2"`
	City          string `json:"city"`
	District      string `json:"district"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
}

type Order struct {
	BaseModel
	OrderNumber     string          `gorm:"uniqueIndex" json:"order_number"`
	UserID          *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GuestEmail      string          `gorm:"index" json:"guest_email,omitempty"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shipping_cost"`
	TotalAmount     float64         `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	Status          OrderStatus     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem carries a frozen product snapshot so later catalog edits never
// alter historical orders.
type OrderItem struct {
	BaseModel
	OrderID          uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ProductID        *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	ProductVariantID *uuid.UUID `gorm:"type:uuid" json:"product_variant_id,omitempty"`
	ProductName      string     `json:"product_name"`
	ProductSize      string     `json:"product_size"`
	ProductColor     string     `json:"product_color"`
	ProductImage     string     `json:"product_image"`
	Quantity         int        `json:"quantity"`
	UnitPrice        float64    `json:"unit_price"`
	TotalPrice       float64    `json:"total_price"`
}

// OrderStatusHistory is the append-only audit trail of status transitions.
type OrderStatusHistory struct {
	BaseModel
	OrderID        uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	Status         OrderStatus `gorm:"type:varchar(20)" json:"status"`
	PreviousStatus OrderStatus `gorm:"type:varchar(20)" json:"previous_status"`
	ChangedBy      *uuid.UUID  `gorm:"type:uuid" json:"changed_by,omitempty"`
	Notes          string      `json:"notes"`
}
