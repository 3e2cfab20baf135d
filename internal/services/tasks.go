package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/randiv7/sohrel-sri-lanka-shop-sub001/internal/queue"
)

// InventoryTaskPayload is the body of inventory deduct/restore tasks. Only
// the order id travels on the queue; items are reloaded on execution so
// retries stay self-contained.
type InventoryTaskPayload struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason,omitempty"`
}

// TaskRouter decodes queued tasks and invokes the owning service.
type TaskRouter struct {
	inventory *InventoryService
	analytics *AnalyticsService
}

// NewTaskRouter constructs TaskRouter.
func NewTaskRouter(inventory *InventoryService, analytics *AnalyticsService) *TaskRouter {
	return &TaskRouter{inventory: inventory, analytics: analytics}
}

// Handle implements queue.Handler.
func (r *TaskRouter) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskInventoryDeduct:
		var payload InventoryTaskPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return err
		}
		return r.inventory.DeductForOrder(ctx, payload.OrderID)

	case queue.TaskInventoryRestore:
		var payload InventoryTaskPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return err
		}
		return r.inventory.RestoreForOrder(ctx, payload.OrderID, payload.Reason)

	case queue.TaskAnalyticsEvent:
		var event AnalyticsEvent
		if err := json.Unmarshal(task.Payload, &event); err != nil {
			return err
		}
		// Analytics is fire-and-forget: swallow failures so the queue
		// never retries events.
		_ = r.analytics.Record(event)
		return nil
	}

	return fmt.Errorf("unknown task type %q", task.Type)
}
