package commands

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/events"
)

// TransitionStatusCommandHandler moves an order along the lifecycle graph.
//
// The order row, the status log row and the audit entry commit together
// under the optimistic version guard; a lost race is retried with a fresh
// read. Events are dispatched only after commit and only when the status
// actually changed.
//
// Example:
//
//	cmd, _ := NewTransitionStatusCommand(orderID, "confirmed", "PI signed", "buyer-1", "api")
//	result, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, errs.ErrTransitionIsInvalid):
//	    // 409
//	case err != nil:
//	    return err
//	}
//	for _, f := range result.ReactorFailures {
//	    log.Printf("reactor %s failed: %v", f.Reactor, f.Err)
//	}
type TransitionStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	dispatcher EventDispatcher
}

// NewTransitionStatusCommandHandler creates a handler for status changes.
// Requires an OrderUoWFactory for the versioned write and an EventDispatcher
// for what follows a committed change.
func NewTransitionStatusCommandHandler(uowFactory OrderUoWFactory, dispatcher EventDispatcher) TransitionStatusCommandHandler {
	return TransitionStatusCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
	}
}

func (h TransitionStatusCommandHandler) Handle(ctx context.Context, cmd TransitionStatusCommand) (TransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return TransitionResult{}, err
	}

	req := transitionRequest{
		orderID: cmd.OrderID(),
		target:  cmd.Target(),
		note:    cmd.Note(),
		actor:   cmd.Actor(),
		source:  cmd.Source(),
	}

	var outcome transitionOutcome
	err := retryOnVersionConflict("order", cmd.OrderID(), func() error {
		uow := h.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return err
		}

		defer func() {
			_ = uow.Rollback(ctx)
		}()

		var err error
		outcome, err = applyTransition(ctx, uow, req, time.Now().UTC())
		if err != nil {
			return err
		}
		if !outcome.changed {
			return nil
		}
		return uow.Commit(ctx)
	})
	if err != nil {
		return TransitionResult{}, err
	}

	return dispatchTransition(ctx, h.dispatcher, outcome, events.Context{
		Actor:  cmd.Actor(),
		Source: cmd.Source(),
	}, nil), nil
}
