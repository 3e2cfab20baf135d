package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
)

// InventoryService maintains the append-only stock movement ledger and the
// denormalized per-variant counter derived from it. Both Deduct and Restore
// are best-effort relative to the order they serve: failures are reported to
// the dispatcher for retry but never reach the customer-facing path.
type InventoryService struct {
	db     *gorm.DB
	client *InventoryClient
}

// NewInventoryService constructs InventoryService. client may be nil when no
// external inventory system is configured.
func NewInventoryService(db *gorm.DB, client *InventoryClient) *InventoryService {
	return &InventoryService{db: db, client: client}
}

// DeductForOrder records a deduct movement for every stock-tracked item on
// the order. Loading items by order id keeps queued retries self-contained.
func (s *InventoryService) DeductForOrder(ctx context.Context, orderID uuid.UUID) error {
	items, err := s.loadItems(orderID)
	if err != nil {
		return err
	}
	return s.Deduct(ctx, items, orderID)
}

// RestoreForOrder records a return movement for every stock-tracked item on a
// cancelled order.
func (s *InventoryService) RestoreForOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	items, err := s.loadItems(orderID)
	if err != nil {
		return err
	}
	return s.Restore(ctx, items, orderID, reason)
}

// Deduct appends one negative movement per stock-tracked item.
func (s *InventoryService) Deduct(ctx context.Context, items []models.OrderItem, orderID uuid.UUID) error {
	if err := s.apply(items, orderID, models.MovementDeduct, "order placed"); err != nil {
		return err
	}

	if s.client != nil {
		tracked, err := s.trackedVariants(items)
		if err != nil {
			log.Printf("[Inventory] Tracked-variant lookup for order %s failed: %v", orderID, err)
			return nil
		}
		var sendable []models.OrderItem
		for _, item := range items {
			if item.ProductVariantID != nil && tracked[*item.ProductVariantID] {
				sendable = append(sendable, item)
			}
		}
		if err := s.client.DeductStock(ctx, sendable, orderID); err != nil {
			log.Printf("[Inventory] External deduct_stock failed for order %s: %v", orderID, err)
		}
	}
	return nil
}

// Restore appends one positive movement per stock-tracked item, reversing an
// earlier deduction. Replays are absorbed by the ledger's unique index, so a
// retried cancellation never double-credits stock.
func (s *InventoryService) Restore(ctx context.Context, items []models.OrderItem, orderID uuid.UUID, reason string) error {
	if reason == "" {
		reason = "order cancelled"
	}
	return s.apply(items, orderID, models.MovementReturn, reason)
}

// StockLevel sums the ledger for one variant. Used to reconcile the
// denormalized counter against the source of truth.
func (s *InventoryService) StockLevel(variantID uuid.UUID) (int, error) {
	var total int64
	err := s.db.Model(&models.InventoryMovement{}).
		Where("product_variant_id = ?", variantID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (s *InventoryService) apply(items []models.OrderItem, orderID uuid.UUID, movementType models.MovementType, note string) error {
	tracked, err := s.trackedVariants(items)
	if err != nil {
		return err
	}

	var firstErr error
	for _, item := range items {
		if item.ProductVariantID == nil || !tracked[*item.ProductVariantID] {
			continue
		}

		delta := item.Quantity
		if movementType == models.MovementDeduct {
			delta = -delta
		}

		movement := models.InventoryMovement{
			ProductVariantID: *item.ProductVariantID,
			OrderID:          &orderID,
			Type:             movementType,
			Quantity:         delta,
			Note:             note,
		}

		res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&movement)
		if res.Error != nil {
			log.Printf("[Inventory] Movement %s for order %s variant %s failed: %v",
				movementType, orderID, *item.ProductVariantID, res.Error)
			if firstErr == nil {
				firstErr = res.Error
			}
			continue
		}
		if res.RowsAffected == 0 {
			// Movement already recorded by an earlier attempt.
			continue
		}

		if err := s.bumpCounter(*item.ProductVariantID, delta); err != nil {
			log.Printf("[Inventory] Counter update for variant %s failed: %v", *item.ProductVariantID, err)
		}
	}
	return firstErr
}

// trackedVariants resolves which of the items' variants are stock-tracked.
// Only those enter the ledger; untracked variants get no movements at all.
func (s *InventoryService) trackedVariants(items []models.OrderItem) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	for _, item := range items {
		if item.ProductVariantID != nil {
			ids = append(ids, *item.ProductVariantID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var variants []models.ProductVariant
	if err := s.db.Where("id IN ? AND track_stock = ?", ids, true).Find(&variants).Error; err != nil {
		return nil, err
	}

	tracked := make(map[uuid.UUID]bool, len(variants))
	for _, variant := range variants {
		tracked[variant.ID] = true
	}
	return tracked, nil
}

// bumpCounter adjusts the denormalized stock counter with a single atomic
// UPDATE; no read-modify-write, so concurrent movements on the same variant
// cannot lose updates.
func (s *InventoryService) bumpCounter(variantID uuid.UUID, delta int) error {
	return s.db.Model(&models.ProductVariant{}).
		Where("id = ? AND track_stock = ?", variantID, true).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta)).Error
}

func (s *InventoryService) loadItems(orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := s.db.Where("order_id = ?", orderID).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
