package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// Repositories below are bound to the transaction started by Begin, or
	// to the plain connection when none is active.
	OrderRepository() OrderRepository
	StatusLogRepository() StatusLogRepository
	DisputeRepository() DisputeRepository
	TransactionRepository() TransactionRepository
	InvoiceRepository() InvoiceRepository
	ShipmentRepository() ShipmentRepository
	AuditRepository() AuditRepository
	MembershipActivator() MembershipActivator
}
