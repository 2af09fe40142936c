package ports

import (
	"context"

	"tradeflow/internal/core/domain/model/kernel"
)

// GatewayResponse is what a provider answers to an escrow or checkout call.
type GatewayResponse struct {
	ProviderRef string
	Status      string
	Amount      kernel.Money
	CheckoutURL string
	Extra       map[string]any
}

// Webhook is the normalized content of a verified provider notification.
type Webhook struct {
	ProviderRef string
	Status      string
	Payload     map[string]any
}

// MembershipCheckout describes a membership purchase sent to a provider.
type MembershipCheckout struct {
	InvoiceID kernel.UUID
	UserID    string
	PlanSlug  string
	PlanLabel string
	Amount    kernel.Money
}

// PaymentGateway is the escrow provider abstraction. Implementations must be
// safe for concurrent use.
type PaymentGateway interface {
	// Name is the provider key stored on ledger rows.
	Name() string

	Hold(ctx context.Context, orderID kernel.UUID, amount kernel.Money, metadata map[string]any) (GatewayResponse, error)
	Release(ctx context.Context, orderID kernel.UUID, providerRef string, metadata map[string]any) (GatewayResponse, error)
	Refund(ctx context.Context, orderID kernel.UUID, providerRef string, amount kernel.Money, metadata map[string]any) (GatewayResponse, error)
	CheckoutMembership(ctx context.Context, checkout MembershipCheckout) (GatewayResponse, error)

	// ParseWebhook verifies the signature and extracts reference and status.
	// Returns SignatureMismatchError or PayloadIsInvalidError.
	ParseWebhook(ctx context.Context, body []byte, signature string) (Webhook, error)
}
