// Package dispute models a claim raised against a trade order.
package dispute

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/errs"
)

var ErrDisputeIsNotConstructed = errors.New("Dispute must be created via NewDispute or RestoreDispute")

// State is the dispute lifecycle: open, then resolved or closed.
type State string

const (
	StateOpen     State = "open"
	StateResolved State = "resolved"
	StateClosed   State = "closed"
)

// DefaultRole is used when the opener does not say which side they are on.
const DefaultRole = "buyer"

// ParseOutcome accepts the two terminal states a dispute may end in.
func ParseOutcome(raw string) (State, error) {
	switch s := State(strings.ToLower(strings.TrimSpace(raw))); s {
	case StateResolved, StateClosed:
		return s, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not resolved or closed", raw))
	}
}

// OrderStatus is the order status a dispute outcome moves the order to.
func (s State) OrderStatus() order.Status {
	switch s {
	case StateResolved:
		return order.Resolved
	case StateClosed:
		return order.Closed
	default:
		return order.Dispute
	}
}

// Dispute is a claim against an order. Disputes are never deleted.
type Dispute struct {
	id         kernel.UUID
	orderID    kernel.UUID
	openedBy   string
	role       string
	reason     string
	state      State
	evidence   map[string]any
	resolution string
	openedAt   time.Time
	closedAt   *time.Time

	isConstructed bool
}

// NewDispute opens a dispute. Reason is required; a blank role becomes DefaultRole.
func NewDispute(
	id, orderID kernel.UUID,
	openedBy, role, reason string,
	evidence map[string]any,
	now time.Time,
) (*Dispute, error) {
	reason = strings.TrimSpace(reason)
	var reasonErr error
	if reason == "" {
		reasonErr = errs.NewValueIsRequiredError("reason")
	}
	if err := errors.Join(id.Validate(), orderID.Validate(), reasonErr); err != nil {
		return nil, err
	}

	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = DefaultRole
	}

	return &Dispute{
		id:            id,
		orderID:       orderID,
		openedBy:      strings.TrimSpace(openedBy),
		role:          role,
		reason:        reason,
		state:         StateOpen,
		evidence:      maps.Clone(evidence),
		openedAt:      now,
		isConstructed: true,
	}, nil
}

// RestoreDispute rebuilds a persisted dispute.
func RestoreDispute(
	id, orderID kernel.UUID,
	openedBy, role, reason string,
	state State,
	evidence map[string]any,
	resolution string,
	openedAt time.Time,
	closedAt *time.Time,
) (*Dispute, error) {
	if err := errors.Join(id.Validate(), orderID.Validate()); err != nil {
		return nil, err
	}
	switch state {
	case StateOpen, StateResolved, StateClosed:
	default:
		return nil, errs.NewValueIsInvalidErrorWithCause("dispute state", fmt.Errorf("%q is unknown", state))
	}

	return &Dispute{
		id:            id,
		orderID:       orderID,
		openedBy:      openedBy,
		role:          role,
		reason:        reason,
		state:         state,
		evidence:      maps.Clone(evidence),
		resolution:    resolution,
		openedAt:      openedAt,
		closedAt:      closedAt,
		isConstructed: true,
	}, nil
}

func (d *Dispute) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDisputeIsNotConstructed
	}
	return nil
}

func (d *Dispute) ID() kernel.UUID { return d.id }
func (d *Dispute) OrderID() kernel.UUID { return d.orderID }
func (d *Dispute) OpenedBy() string { return d.openedBy }
func (d *Dispute) Role() string { return d.role }
func (d *Dispute) Reason() string { return d.reason }
func (d *Dispute) State() State { return d.state }
func (d *Dispute) Evidence() map[string]any { return maps.Clone(d.evidence) }
func (d *Dispute) Resolution() string { return d.resolution }
func (d *Dispute) OpenedAt() time.Time { return d.openedAt }
func (d *Dispute) ClosedAt() *time.Time { return d.closedAt }

// Resolve ends an open dispute with outcome (resolved or closed).
func (d *Dispute) Resolve(outcome State, resolution string, now time.Time) error {
	if outcome != StateResolved && outcome != StateClosed {
		return errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not resolved or closed", outcome))
	}
	if d.state != StateOpen {
		return errs.NewValueIsInvalidErrorWithCause("dispute state", fmt.Errorf("dispute is already %s", d.state))
	}

	closedAt := now
	d.state = outcome
	d.resolution = strings.TrimSpace(resolution)
	d.closedAt = &closedAt
	return nil
}
