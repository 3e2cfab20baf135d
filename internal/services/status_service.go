package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/models"
	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/queue"
)

// forwardTransitions is the strict-mode validity table. Re-entering the
// current status is always allowed as a retry no-op carrier; cancellation is
// allowed from any non-terminal state regardless of this table.
var forwardTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusShipped},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusDelivered},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
}

// StatusService applies order status transitions: lifecycle timestamps, audit
// history and compensating inventory restoration on cancellation.
type StatusService struct {
	db         *gorm.DB
	dispatcher queue.Dispatcher
	strict     bool
}

// NewStatusService constructs StatusService. strict enables the forward
// transition table; the default policy only protects terminal states.
func NewStatusService(db *gorm.DB, dispatcher queue.Dispatcher, strict bool) *StatusService {
	return &StatusService{db: db, dispatcher: dispatcher, strict: strict}
}

// Transition moves an order to newStatus on behalf of actorID. The update is
// a compare-and-swap on the current status, so two concurrent transitions on
// the same order cannot both apply against the same previous status. Audit
// and inventory side effects are best-effort: their failure never reverts the
// already-applied status change.
func (s *StatusService) Transition(orderID uuid.UUID, newStatus models.OrderStatus, notes string, actorID *uuid.UUID) (*models.Order, error) {
	if !models.ValidOrderStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	previous := order.Status
	if err := s.checkPolicy(previous, newStatus); err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]any{"status": newStatus, "updated_at": now}
	if newStatus == models.OrderStatusShipped && order.ShippedAt == nil {
		updates["shipped_at"] = now
	}
	if newStatus == models.OrderStatusDelivered && order.DeliveredAt == nil {
		updates["delivered_at"] = now
	}

	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, previous).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStatusConflict
	}

	s.appendHistory(orderID, newStatus, previous, notes, actorID)

	if newStatus == models.OrderStatusCancelled && previous != models.OrderStatusCancelled {
		s.dispatchRestore(orderID, notes)
	}

	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// History returns the audit trail for one order, oldest first.
func (s *StatusService) History(orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := s.db.Where("order_id = ?", orderID).Order("created_at").Find(&history).Error
	return history, err
}

func (s *StatusService) checkPolicy(previous, next models.OrderStatus) error {
	if previous == next {
		return nil
	}
	if models.TerminalOrderStatus(previous) {
		return ErrTerminalStatus
	}
	if next == models.OrderStatusCancelled {
		return nil
	}
	if !s.strict {
		return nil
	}
	for _, allowed := range forwardTransitions[previous] {
		if allowed == next {
			return nil
		}
	}
	return ErrTransitionNotAllowed
}

func (s *StatusService) appendHistory(orderID uuid.UUID, status, previous models.OrderStatus, notes string, actorID *uuid.UUID) {
	entry := models.OrderStatusHistory{
		OrderID:        orderID,
		Status:         status,
		PreviousStatus: previous,
		ChangedBy:      actorID,
		Notes:          notes,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("[Status] Audit history write failed for order %s: %v", orderID, err)
	}
}

func (s *StatusService) dispatchRestore(orderID uuid.UUID, reason string) {
	payload, err := json.Marshal(InventoryTaskPayload{OrderID: orderID, Reason: reason})
	if err != nil {
		log.Printf("[Status] Restore payload for order %s: %v", orderID, err)
		return
	}
	if err := s.dispatcher.Enqueue(queue.Task{Type: queue.TaskInventoryRestore, Payload: payload}); err != nil {
		log.Printf("[Status] Restore dispatch for order %s failed: %v", orderID, err)
	}
}
