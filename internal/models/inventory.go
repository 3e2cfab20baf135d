package models

import "github.com/google/uuid"

type MovementType string

const (
	MovementDeduct MovementType = "deduct"
	MovementReturn MovementType = "return"
	MovementAdjust MovementType = "adjust"
)

// ProductVariant holds the denormalized stock counter for fast reads. The
// movement ledger remains the source of truth; StockQuantity is only ever
// changed through atomic SQL increments driven by ledger appends.
type ProductVariant struct {
	BaseModel
	SKU           string `gorm:"uniqueIndex" json:"sku"`
	Name          string `json:"name"`
	TrackStock    bool   `gorm:"default:true" json:"track_stock"`
	StockQuantity int    `json:"stock_quantity"`
}

// InventoryMovement is one entry in the append-only stock ledger. Quantity is
// a signed delta: negative for deductions, positive for returns. The unique
// index over (order, variant, type) makes replayed deduct/restore writes for
// the same order no-ops at the storage layer.
type InventoryMovement struct {
	BaseModel
	ProductVariantID uuid.UUID    `gorm:"type:uuid;index;uniqueIndex:idx_movement_order_variant_type" json:"product_variant_id"`
	OrderID          *uuid.UUID   `gorm:"type:uuid;index;uniqueIndex:idx_movement_order_variant_type" json:"order_id,omitempty"`
	Type             MovementType `gorm:"type:varchar(20);uniqueIndex:idx_movement_order_variant_type" json:"type"`
	Quantity         int          `json:"quantity"`
	Note             string       `json:"note"`
}
