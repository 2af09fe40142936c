// Package ports defines the contracts between the trade workflow core and
// its infrastructure: repositories, the unit of work and the payment gateway.
package ports

import (
	"context"

	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order together with its item lines.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists status, sub-states, milestones, metadata and version.
	// The stored row must still carry aggregate.Version()-1; otherwise
	// VersionIsInvalidError is returned and nothing is written.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get loads an order with its items.
	// Returns ObjectNotFoundError when no order has the given id.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}

// StatusLogRepository stores the append-only status history of orders.
type StatusLogRepository interface {
	Append(ctx context.Context, entry order.StatusLogEntry) error

	// ListByOrder returns entries oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.StatusLogEntry, error)
}

// DisputeRepository defines the persistence contract for disputes.
type DisputeRepository interface {
	Add(ctx context.Context, aggregate *dispute.Dispute) error
	Update(ctx context.Context, aggregate *dispute.Dispute) error
	Get(ctx context.Context, id kernel.UUID) (*dispute.Dispute, error)
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*dispute.Dispute, error)
}
