package ports

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/shipment"
)

// ShipmentRepository defines the persistence contract for shipments.
// At most one shipment exists per order.
type ShipmentRepository interface {
	// AddIfAbsent inserts the shipment unless one already exists for its
	// order. inserted reports whether this call created the row.
	AddIfAbsent(ctx context.Context, aggregate *shipment.Shipment) (inserted bool, err error)

	Update(ctx context.Context, aggregate *shipment.Shipment) error
	Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error)

	// GetByOrder returns ObjectNotFoundError when the order has no shipment.
	GetByOrder(ctx context.Context, orderID kernel.UUID) (*shipment.Shipment, error)

	AppendEvent(ctx context.Context, event shipment.Event) error
	ListEvents(ctx context.Context, shipmentID kernel.UUID) ([]shipment.Event, error)
}

// AuditRepository stores the audit trail.
type AuditRepository interface {
	Record(ctx context.Context, entry audit.Entry) error

	// PruneBefore deletes entries older than cutoff and returns how many went.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
