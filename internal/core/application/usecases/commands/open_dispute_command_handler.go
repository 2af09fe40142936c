package commands

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
)

// OpenDisputeResult carries the new dispute id next to the transition outcome.
type OpenDisputeResult struct {
	DisputeID kernel.UUID
	TransitionResult
}

// OpenDisputeCommandHandler records a dispute and moves the order to
// dispute in one unit of work. If the order cannot enter dispute (for
// example it is already closed) nothing is stored. An order that is
// already in dispute gets the extra dispute row but no second
// dispute.required event.
type OpenDisputeCommandHandler struct {
	uowFactory DisputeUoWFactory
	dispatcher EventDispatcher
}

// NewOpenDisputeCommandHandler creates a handler for raising disputes.
// Requires a DisputeUoWFactory so the dispute row and the order move commit together.
func NewOpenDisputeCommandHandler(uowFactory DisputeUoWFactory, dispatcher EventDispatcher) OpenDisputeCommandHandler {
	return OpenDisputeCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
	}
}

func (h OpenDisputeCommandHandler) Handle(ctx context.Context, cmd OpenDisputeCommand) (OpenDisputeResult, error) {
	if err := cmd.Validate(); err != nil {
		return OpenDisputeResult{}, err
	}

	var (
		outcome transitionOutcome
		opened  *dispute.Dispute
	)
	err := retryOnVersionConflict("order", cmd.OrderID(), func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		now := time.Now().UTC()
		d, err := dispute.NewDispute(
			cmd.DisputeID(), cmd.OrderID(),
			cmd.OpenedBy(), cmd.Role(), cmd.Reason(), cmd.Evidence(),
			now,
		)
		if err != nil {
			return err
		}

		outcome, err = applyTransition(ctx, uow, transitionRequest{
			orderID: cmd.OrderID(),
			target:  order.Dispute,
			note:    "Dispute opened: " + d.Reason(),
			actor:   cmd.OpenedBy(),
			source:  SourceDispute,
		}, now)
		if err != nil {
			return err
		}

		if err = uow.DisputeRepository().Add(ctx, d); err != nil {
			return err
		}

		if err = uow.AuditRepository().Record(ctx, audit.NewEntry(cmd.OpenedBy(), audit.ActionDisputeOpened, map[string]any{
			"order_id":   d.OrderID().String(),
			"dispute_id": d.ID().String(),
			"role":       d.Role(),
			"reason":     d.Reason(),
		}, now)); err != nil {
			return err
		}

		opened = d
		return uow.Commit(ctx)
	})
	if err != nil {
		return OpenDisputeResult{}, err
	}

	result := dispatchTransition(ctx, h.dispatcher, outcome, events.Context{
		Actor:  cmd.OpenedBy(),
		Source: SourceDispute,
	}, &events.DisputeContext{
		DisputeID: opened.ID(),
		Role:      opened.Role(),
		Reason:    opened.Reason(),
		Evidence:  opened.Evidence(),
	})

	return OpenDisputeResult{DisputeID: opened.ID(), TransitionResult: result}, nil
}
