// Package events defines the typed lifecycle events emitted after an order
// transition commits.
package events

import (
	"maps"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
)

// Kind names a lifecycle event.
type Kind string

const (
	OrderStatusChanged      Kind = "order.status_changed"
	PaymentDepositRequested Kind = "payment.deposit_requested"
	PaymentEscrowFunded     Kind = "payment.escrow_funded"
	LogisticsBookingNeeded  Kind = "logistics.booking_required"
	LogisticsTrackingUpdate Kind = "logistics.tracking_update"
	PaymentReleasePending   Kind = "payment.release_pending"
	OrderClosed             Kind = "order.closed"
	DisputeRequired         Kind = "dispute.required"
)

// kindByStatus maps the status entered to the additional event it triggers.
var kindByStatus = map[order.Status]Kind{
	order.Confirmed:   PaymentDepositRequested,
	order.Financed:    PaymentEscrowFunded,
	order.ReadyToShip: LogisticsBookingNeeded,
	order.Shipped:     LogisticsTrackingUpdate,
	order.Delivered:   PaymentReleasePending,
	order.Closed:      OrderClosed,
	order.Dispute:     DisputeRequired,
}

// Context identifies who asked for a transition and through which channel.
type Context struct {
	Actor  string
	Source string
}

// DisputeContext travels with dispute.required.
type DisputeContext struct {
	DisputeID kernel.UUID
	Role      string
	Reason    string
	Evidence  map[string]any
}

// Event is delivered to reactors. Order is an immutable snapshot taken after
// the transition committed.
type Event struct {
	Kind       Kind
	Order      order.Snapshot
	From       order.Status
	To         order.Status
	Context    Context
	Dispute    *DisputeContext
	OccurredAt time.Time
}

// ForTransition builds the ordered events for a committed transition:
// order.status_changed first, then the status-specific event if any.
func ForTransition(
	snapshot order.Snapshot,
	from, to order.Status,
	ctx Context,
	dispute *DisputeContext,
	now time.Time,
) []Event {
	base := Event{
		Kind:       OrderStatusChanged,
		Order:      snapshot,
		From:       from,
		To:         to,
		Context:    ctx,
		OccurredAt: now,
	}
	out := []Event{base}

	kind, ok := kindByStatus[to]
	if !ok {
		return out
	}
	specific := base
	specific.Kind = kind
	if kind == DisputeRequired && dispute != nil {
		dc := *dispute
		dc.Evidence = maps.Clone(dispute.Evidence)
		specific.Dispute = &dc
	}
	return append(out, specific)
}

// Failure records a reactor that returned an error or panicked.
// The committed transition is never undone because of it.
type Failure struct {
	Kind    Kind
	Reactor string
	Err     error
}

func (f Failure) Error() string {
	return string(f.Kind) + " -> " + f.Reactor + ": " + f.Err.Error()
}

// Kinds lists every event kind in emission order.
func Kinds() []Kind {
	return []Kind{
		OrderStatusChanged,
		PaymentDepositRequested,
		PaymentEscrowFunded,
		LogisticsBookingNeeded,
		LogisticsTrackingUpdate,
		PaymentReleasePending,
		OrderClosed,
		DisputeRequired,
	}
}
