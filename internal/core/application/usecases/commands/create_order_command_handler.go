package commands

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/order"
)

// CreateOrderCommandHandler persists a new proforma order with its items,
// the initial status log entry and an order_created audit entry in one
// transaction. No lifecycle events fire on creation.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
// Requires an OrderUoWFactory for transactional persistence.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns the snapshot of the stored order.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (order.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return order.Snapshot{}, err
	}

	now := time.Now().UTC()
	o, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Source(),
		cmd.SellerID(),
		cmd.Currency(),
		cmd.Items(),
		cmd.Metadata(),
		now,
	)
	if err != nil {
		return order.Snapshot{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return order.Snapshot{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return order.Snapshot{}, err
	}

	// The first history row has no predecessor, so it skips graph validation.
	entry := order.NewStatusLogEntry(o.ID(), o.Status(), "Order created", cmd.Actor(), now)
	if err = uow.StatusLogRepository().Append(ctx, entry); err != nil {
		return order.Snapshot{}, err
	}

	if err = uow.AuditRepository().Record(ctx, audit.NewEntry(cmd.Actor(), audit.ActionOrderCreated, map[string]any{
		"order_id": o.ID().String(),
		"rfq_id":   o.RequestID(),
	}, now)); err != nil {
		return order.Snapshot{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return order.Snapshot{}, err
	}

	return o.Snapshot(), nil
}
