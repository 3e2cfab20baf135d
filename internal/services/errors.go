package services

import "errors"

var (
	// ErrOrderNotFound is returned when an order id resolves to nothing.
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateOrderNumber is returned when checkout replays an order
	// number that already produced an order.
	ErrDuplicateOrderNumber = errors.New("order number already exists")

	// ErrStatusConflict is returned when a concurrent transition moved the
	// order away from the status this transition read.
	ErrStatusConflict = errors.New("order status changed concurrently")

	// ErrInvalidStatus is returned for unknown target statuses.
	ErrInvalidStatus = errors.New("invalid order status")

	// ErrTerminalStatus is returned when transitioning an order already in a
	// terminal state.
	ErrTerminalStatus = errors.New("order is in a terminal status")

	// ErrTransitionNotAllowed is returned by the strict transition policy.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)
