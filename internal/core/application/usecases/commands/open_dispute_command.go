package commands

import (
	"errors"
	"maps"
	"strings"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"
	"tradeflow/internal/pkg/guard"
)

var ErrOpenDisputeCommandIsNotConstructed = errors.New(
	"OpenDisputeCommand must be created via NewOpenDisputeCommand constructor",
)

// OpenDisputeCommand raises a claim against an order and moves it to dispute.
// The dispute id is fixed when the command is built so that a retried
// attempt writes the same row.
type OpenDisputeCommand struct {
	disputeID kernel.UUID
	orderID   kernel.UUID
	openedBy  string
	role      string
	reason    string
	evidence  map[string]any

	guard guard.ConstructorGuard
}

// NewOpenDisputeCommand requires a reason and bounds the opener and role.
func NewOpenDisputeCommand(
	orderID kernel.UUID,
	openedBy, role, reason string,
	evidence map[string]any,
) (OpenDisputeCommand, error) {
	var reasonErr error
	if strings.TrimSpace(reason) == "" {
		reasonErr = errs.NewValueIsRequiredError("reason")
	}
	if err := errors.Join(
		orderID.Validate(),
		reasonErr,
		checkLength("opened by", openedBy, maxIdentifierLength),
		checkLength("role", role, maxRoleLength),
	); err != nil {
		return OpenDisputeCommand{}, err
	}

	return OpenDisputeCommand{
		disputeID: kernel.NewUUID(),
		orderID:   orderID,
		openedBy:  openedBy,
		role:      role,
		reason:    reason,
		evidence:  maps.Clone(evidence),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c OpenDisputeCommand) Validate() error {
	return c.guard.Validate(ErrOpenDisputeCommandIsNotConstructed)
}

func (c OpenDisputeCommand) DisputeID() kernel.UUID {
	return c.disputeID
}

func (c OpenDisputeCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c OpenDisputeCommand) OpenedBy() string {
	return c.openedBy
}

func (c OpenDisputeCommand) Role() string {
	return c.role
}

func (c OpenDisputeCommand) Reason() string {
	return c.reason
}

func (c OpenDisputeCommand) Evidence() map[string]any {
	return maps.Clone(c.evidence)
}
