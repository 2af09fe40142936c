package commands

import (
	"errors"
	"math"
	"time"

	"tradeflow/internal/pkg/errs"
	"tradeflow/internal/pkg/guard"
)

var ErrPruneAuditLogCommandIsNotConstructed = errors.New(
	"PruneAuditLogCommand must be created via NewPruneAuditLogCommand constructor",
)

// PruneAuditLogCommand removes audit entries older than the retention window.
type PruneAuditLogCommand struct {
	retention time.Duration

	guard guard.ConstructorGuard
}

// NewPruneAuditLogCommand requires a positive retention.
func NewPruneAuditLogCommand(retention time.Duration) (PruneAuditLogCommand, error) {
	if retention <= 0 {
		return PruneAuditLogCommand{}, errs.NewValueIsOutOfRangeError("retention", retention, time.Duration(1), time.Duration(math.MaxInt64))
	}
	return PruneAuditLogCommand{
		retention: retention,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c PruneAuditLogCommand) Validate() error {
	return c.guard.Validate(ErrPruneAuditLogCommandIsNotConstructed)
}

func (c PruneAuditLogCommand) Retention() time.Duration {
	return c.retention
}
