package commands

import (
	"context"
	"errors"
	"time"

	"tradeflow/internal/core/domain/model/audit"
	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/errs"
)

// maxTransitionAttempts bounds the re-read/retry loop on version conflicts.
const maxTransitionAttempts = 3

// Sources recorded in the audit trail for status changes.
const (
	SourceAPI     = "api"
	SourceDispute = "dispute"
	SourceSystem  = "system"
)

// TransitionResult is returned by every command that may move an order.
type TransitionResult struct {
	Order   order.Snapshot
	Changed bool
	// ReactorFailures lists reactors that failed after commit. They never
	// turn a committed transition into an error.
	ReactorFailures []events.Failure
}

type transitionRequest struct {
	orderID kernel.UUID
	target  order.Status
	note    string
	actor   string
	source  string
}

type transitionOutcome struct {
	from    order.Status
	order   *order.Order
	changed bool
}

// applyTransition loads the order, moves it and writes the status log row
// and the audit entry through uow. Nothing is written when the order is
// already in the target status.
func applyTransition(
	ctx context.Context,
	uow OrderUoW,
	req transitionRequest,
	now time.Time,
) (transitionOutcome, error) {
	orders := uow.OrderRepository()

	o, err := orders.Get(ctx, req.orderID)
	if err != nil {
		return transitionOutcome{}, err
	}

	from := o.Status()
	changed, err := o.Transition(req.target, now)
	if err != nil {
		return transitionOutcome{}, err
	}
	if !changed {
		return transitionOutcome{from: from, order: o}, nil
	}

	if err = orders.Update(ctx, o); err != nil {
		return transitionOutcome{}, err
	}

	entry := order.NewStatusLogEntry(o.ID(), req.target, req.note, req.actor, now)
	if err = uow.StatusLogRepository().Append(ctx, entry); err != nil {
		return transitionOutcome{}, err
	}

	if err = uow.AuditRepository().Record(ctx, audit.NewEntry(req.actor, audit.ActionOrderStatus, map[string]any{
		"order_id": o.ID().String(),
		"from":     from.String(),
		"to":       req.target.String(),
		"actor":    entry.Actor,
		"source":   req.source,
	}, now)); err != nil {
		return transitionOutcome{}, err
	}

	return transitionOutcome{from: from, order: o, changed: true}, nil
}

// retryOnVersionConflict re-runs attempt while the order row keeps moving
// underneath it. Each attempt must open its own unit of work.
func retryOnVersionConflict(entity string, id kernel.UUID, attempt func() error) error {
	var err error
	for range maxTransitionAttempts {
		if err = attempt(); !errors.Is(err, errs.ErrVersionIsInvalid) {
			return err
		}
	}
	return errs.NewConcurrencyConflictError(entity, id, maxTransitionAttempts, err)
}

func dispatchTransition(
	ctx context.Context,
	dispatcher EventDispatcher,
	outcome transitionOutcome,
	evCtx events.Context,
	dispute *events.DisputeContext,
) TransitionResult {
	snapshot := outcome.order.Snapshot()
	result := TransitionResult{Order: snapshot, Changed: outcome.changed}
	if !outcome.changed {
		return result
	}

	evs := events.ForTransition(snapshot, outcome.from, snapshot.Status, evCtx, dispute, snapshot.UpdatedAt)
	result.ReactorFailures = dispatcher.Dispatch(ctx, evs...)
	return result
}
