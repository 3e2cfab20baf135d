package queue

import "context"

// Task types routed through the dispatcher.
const (
	TaskInventoryDeduct  = "inventory.deduct"
	TaskInventoryRestore = "inventory.restore"
	TaskAnalyticsEvent   = "analytics.event"
)

// Task is one unit of deferred work. Payload is a JSON document owned by the
// task type.
type Task struct {
	Type    string `json:"type"`
	Payload []byte `json:"payload"`
}

// Handler processes one task. A non-nil error requests a retry.
type Handler func(ctx context.Context, task Task) error

// Dispatcher accepts tasks for asynchronous execution. Enqueue must not block
// on the task being executed; the request path that acknowledged the order
// never waits for its side effects.
type Dispatcher interface {
	Enqueue(task Task) error
	Close()
}

// Sync runs tasks inline on Enqueue. Used in tests where side effects must be
// observable immediately.
type Sync struct {
	Handler Handler
}

func (s Sync) Enqueue(task Task) error {
	return s.Handler(context.Background(), task)
}

func (s Sync) Close() {}
