package commands

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/events"
)

// ResolveDisputeCommandHandler closes a dispute and moves its order to
// resolved or closed in the same unit of work.
type ResolveDisputeCommandHandler struct {
	uowFactory DisputeUoWFactory
	dispatcher EventDispatcher
}

// NewResolveDisputeCommandHandler creates a handler for ending disputes.
// Requires a DisputeUoWFactory and an EventDispatcher.
func NewResolveDisputeCommandHandler(uowFactory DisputeUoWFactory, dispatcher EventDispatcher) ResolveDisputeCommandHandler {
	return ResolveDisputeCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
	}
}

func (h ResolveDisputeCommandHandler) Handle(ctx context.Context, cmd ResolveDisputeCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}

	var outcome transitionOutcome
	attempt := func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		disputes := uow.DisputeRepository()
		d, err := disputes.Get(ctx, cmd.DisputeID())
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err = d.Resolve(cmd.Outcome(), cmd.Resolution(), now); err != nil {
			return err
		}

		outcome, err = applyTransition(ctx, uow, transitionRequest{
			orderID: d.OrderID(),
			target:  cmd.Outcome().OrderStatus(),
			note:    d.Resolution(),
			actor:   cmd.Actor(),
			source:  SourceDispute,
		}, now)
		if err != nil {
			return err
		}

		if err = disputes.Update(ctx, d); err != nil {
			return err
		}

		if err = uow.AuditRepository().Record(ctx, audit.NewEntry(cmd.Actor(), audit.ActionDisputeResolved, map[string]any{
			"order_id":   d.OrderID().String(),
			"dispute_id": d.ID().String(),
			"outcome":    string(d.State()),
			"resolution": d.Resolution(),
		}, now)); err != nil {
			return err
		}

		return uow.Commit(ctx)
	}

	if err := retryOnVersionConflict("dispute", cmd.DisputeID(), attempt); err != nil {
		return TransitionResult{}, err
	}

	return dispatchTransition(ctx, h.dispatcher, outcome, events.Context{
		Actor:  cmd.Actor(),
		Source: SourceDispute,
	}, nil), nil
}
