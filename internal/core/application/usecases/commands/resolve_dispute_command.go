package commands

import (
	"errors"

	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/guard"
)

var ErrResolveDisputeCommandIsNotConstructed = errors.New(
	"ResolveDisputeCommand must be created via NewResolveDisputeCommand constructor",
)

// ResolveDisputeCommand ends an open dispute as resolved or closed.
type ResolveDisputeCommand struct {
	disputeID  kernel.UUID
	outcome    dispute.State
	resolution string
	actor      string

	guard guard.ConstructorGuard
}

// NewResolveDisputeCommand accepts "resolved" or "closed" as outcome.
func NewResolveDisputeCommand(disputeID kernel.UUID, outcome, resolution, actor string) (ResolveDisputeCommand, error) {
	state, outcomeErr := dispute.ParseOutcome(outcome)
	if err := errors.Join(
		disputeID.Validate(),
		outcomeErr,
		checkLength("actor", actor, maxIdentifierLength),
	); err != nil {
		return ResolveDisputeCommand{}, err
	}

	return ResolveDisputeCommand{
		disputeID:  disputeID,
		outcome:    state,
		resolution: resolution,
		actor:      actor,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c ResolveDisputeCommand) Validate() error {
	return c.guard.Validate(ErrResolveDisputeCommandIsNotConstructed)
}

func (c ResolveDisputeCommand) DisputeID() kernel.UUID {
	return c.disputeID
}

func (c ResolveDisputeCommand) Outcome() dispute.State {
	return c.outcome
}

func (c ResolveDisputeCommand) Resolution() string {
	return c.resolution
}

func (c ResolveDisputeCommand) Actor() string {
	return c.actor
}
