package commands

import (
	"context"
	"time"
)

// PruneAuditLogCommandHandler deletes expired audit entries. It is driven by
// the scheduled retention job.
type PruneAuditLogCommandHandler struct {
	uowFactory AuditUoWFactory
}

// NewPruneAuditLogCommandHandler creates a handler for audit trail cleanup.
// Requires an AuditUoWFactory for the delete.
func NewPruneAuditLogCommandHandler(uowFactory AuditUoWFactory) PruneAuditLogCommandHandler {
	return PruneAuditLogCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle returns the number of deleted entries.
func (h PruneAuditLogCommandHandler) Handle(ctx context.Context, cmd PruneAuditLogCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	deleted, err := uow.AuditRepository().PruneBefore(ctx, time.Now().UTC().Add(-cmd.Retention()))
	if err != nil {
		return 0, err
	}

	if err = uow.Commit(ctx); err != nil {
		return 0, err
	}

	return deleted, nil
}
