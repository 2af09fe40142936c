package ports

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/payment"
)

// WebhookUpdate is a verified provider notification ready to be applied.
type WebhookUpdate struct {
	ProviderRef string
	Status      string
	// Digest identifies the raw payload; a repeated digest is not reapplied.
	Digest  string
	Payload map[string]any
	At      time.Time
}

// TransactionRepository defines the persistence contract for ledger rows.
type TransactionRepository interface {
	Add(ctx context.Context, tx *payment.Transaction) error
	Update(ctx context.Context, tx *payment.Transaction) error
	Get(ctx context.Context, id kernel.UUID) (*payment.Transaction, error)

	// GetByProviderRef returns ObjectNotFoundError for unknown references.
	GetByProviderRef(ctx context.Context, providerRef string) (*payment.Transaction, error)

	// ListByOrder returns the order's rows oldest first. An empty kind
	// returns every row.
	ListByOrder(ctx context.Context, orderID kernel.UUID, kind payment.Type) ([]*payment.Transaction, error)

	// ApplyWebhook sets status, payload and digest on the row matching
	// ProviderRef in a single conditional write. applied is false when the
	// row already carries the digest. Returns ObjectNotFoundError when no
	// row matches.
	ApplyWebhook(ctx context.Context, update WebhookUpdate) (tx *payment.Transaction, applied bool, err error)
}

// InvoiceRepository defines the persistence contract for membership invoices.
type InvoiceRepository interface {
	Add(ctx context.Context, invoice *payment.MembershipInvoice) error
	Update(ctx context.Context, invoice *payment.MembershipInvoice) error
	Get(ctx context.Context, id kernel.UUID) (*payment.MembershipInvoice, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*payment.MembershipInvoice, error)

	// ApplyWebhook behaves like TransactionRepository.ApplyWebhook.
	ApplyWebhook(ctx context.Context, update WebhookUpdate) (invoice *payment.MembershipInvoice, applied bool, err error)
}

// MembershipActivator grants a plan once its invoice is settled.
type MembershipActivator interface {
	Activate(ctx context.Context, userID, planSlug string, at time.Time) error
}
