package commands

import (
	"errors"
	"strings"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/guard"
)

var ErrTransitionStatusCommandIsNotConstructed = errors.New(
	"TransitionStatusCommand must be created via NewTransitionStatusCommand constructor",
)

// TransitionStatusCommand asks to move an order to another lifecycle status.
// Actor and source end up in the status log and in the audit trail.
type TransitionStatusCommand struct {
	orderID kernel.UUID
	target  order.Status
	note    string
	actor   string
	source  string

	guard guard.ConstructorGuard
}

// NewTransitionStatusCommand parses target; an unknown status name is a
// ValueIsInvalidError, as is an actor too long to store. A blank source is
// recorded as "api".
func NewTransitionStatusCommand(orderID kernel.UUID, target, note, actor, source string) (TransitionStatusCommand, error) {
	status, statusErr := order.ParseStatus(target)
	if err := errors.Join(
		orderID.Validate(),
		statusErr,
		checkLength("actor", actor, maxIdentifierLength),
	); err != nil {
		return TransitionStatusCommand{}, err
	}

	source = strings.TrimSpace(source)
	if source == "" {
		source = SourceAPI
	}

	return TransitionStatusCommand{
		orderID: orderID,
		target:  status,
		note:    note,
		actor:   actor,
		source:  source,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c TransitionStatusCommand) Validate() error {
	return c.guard.Validate(ErrTransitionStatusCommandIsNotConstructed)
}

func (c TransitionStatusCommand) OrderID() kernel.UUID { return c.orderID }
func (c TransitionStatusCommand) Target() order.Status { return c.target }
func (c TransitionStatusCommand) Note() string { return c.note }
func (c TransitionStatusCommand) Actor() string { return c.actor }
func (c TransitionStatusCommand) Source() string { return c.source }
