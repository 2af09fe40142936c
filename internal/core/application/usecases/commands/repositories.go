// Package commands contains business operations that modify system state.
// All commands follow a consistent pattern: validation, transaction
// management, persistence and, for status changes, event dispatch after commit.
package commands

import (
	"context"

	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// StatusLogRepoFactory provides access to the status history within a transaction.
	StatusLogRepoFactory interface {
		StatusLogRepository() ports.StatusLogRepository
	}

	// AuditRepoFactory provides access to the audit trail within a transaction.
	AuditRepoFactory interface {
		AuditRepository() ports.AuditRepository
	}

	// DisputeRepoFactory provides access to dispute repository within a transaction.
	DisputeRepoFactory interface {
		DisputeRepository() ports.DisputeRepository
	}

	// OrderUoW covers every write a status change makes: the order row, its
	// status history and the audit entry.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		StatusLogRepoFactory
		AuditRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// DisputeUoW extends OrderUoW with disputes so that opening or resolving
	// a dispute and moving the order commit together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   disputes := uow.DisputeRepository()
	//   orders := uow.OrderRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	DisputeUoW interface {
		OrderUoW
		DisputeRepoFactory
	}

	// DisputeUoWFactory creates new dispute unit of work instances.
	DisputeUoWFactory interface {
		Create() DisputeUoW
	}

	// AuditUoW is used by maintenance commands touching the audit trail only.
	AuditUoW interface {
		TxManager
		AuditRepoFactory
	}

	// AuditUoWFactory creates new audit unit of work instances.
	AuditUoWFactory interface {
		Create() AuditUoW
	}
)

// EventDispatcher delivers events produced by a committed transition.
type EventDispatcher interface {
	Dispatch(ctx context.Context, evs ...events.Event) []events.Failure
}
