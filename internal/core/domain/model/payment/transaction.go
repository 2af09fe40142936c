// Package payment models escrow ledger rows and membership invoices.
package payment

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"
)

var ErrTransactionIsNotConstructed = errors.New("Transaction must be created via NewTransaction or RestoreTransaction")

// Type classifies a ledger row.
type Type string

const (
	TypeEscrowHold        Type = "escrow_hold"
	TypeEscrowFunded      Type = "escrow_funded"
	TypeEscrowRelease     Type = "escrow_release"
	TypeEscrowHoldDispute Type = "escrow_hold_dispute"
	TypeEscrowRefund      Type = "escrow_refund"
)

// Well-known statuses. Gateways may report others; they are stored verbatim.
const (
	StatusPending        = "pending"
	StatusHeld           = "held"
	StatusFunded         = "funded"
	StatusReleased       = "released"
	StatusRefunded       = "refunded"
	StatusOnHold         = "on_hold"
	StatusRequiresAction = "requires_action"
	StatusComplimentary  = "complimentary"
	StatusPaid           = "paid"
	StatusActive         = "active"
	StatusCompleted      = "completed"
)

// ParseType validates a client-supplied type name.
func ParseType(raw string) (Type, error) {
	switch t := Type(strings.TrimSpace(raw)); t {
	case TypeEscrowHold, TypeEscrowFunded, TypeEscrowRelease, TypeEscrowHoldDispute, TypeEscrowRefund:
		return t, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("transaction type", fmt.Errorf("%q is unknown", raw))
	}
}

// NormalizeStatus lower-cases a status and defaults blank to pending.
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusPending
	}
	return s
}

// Transaction is one escrow ledger row for an order. ProviderRef is unique
// across all rows when set.
type Transaction struct {
	id            kernel.UUID
	orderID       kernel.UUID
	kind          Type
	status        string
	amount        kernel.Money
	provider      string
	providerRef   string
	metadata      map[string]any
	webhookDigest string
	createdAt     time.Time
	updatedAt     time.Time

	isConstructed bool
}

// NewTransaction records a ledger row.
func NewTransaction(
	id, orderID kernel.UUID,
	kind Type,
	status string,
	amount kernel.Money,
	provider, providerRef string,
	metadata map[string]any,
	now time.Time,
) (*Transaction, error) {
	if _, err := ParseType(string(kind)); err != nil {
		return nil, err
	}
	if err := errors.Join(id.Validate(), orderID.Validate()); err != nil {
		return nil, err
	}

	return &Transaction{
		id:            id,
		orderID:       orderID,
		kind:          kind,
		status:        NormalizeStatus(status),
		amount:        amount,
		provider:      strings.TrimSpace(provider),
		providerRef:   strings.TrimSpace(providerRef),
		metadata:      cloneMetadata(metadata),
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

// TransactionState is the persisted form used by RestoreTransaction.
type TransactionState struct {
	ID            kernel.UUID
	OrderID       kernel.UUID
	Type          Type
	Status        string
	Amount        kernel.Money
	Provider      string
	ProviderRef   string
	Metadata      map[string]any
	WebhookDigest string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func RestoreTransaction(s TransactionState) (*Transaction, error) {
	if err := errors.Join(s.ID.Validate(), s.OrderID.Validate()); err != nil {
		return nil, err
	}
	return &Transaction{
		id:            s.ID,
		orderID:       s.OrderID,
		kind:          s.Type,
		status:        s.Status,
		amount:        s.Amount,
		provider:      s.Provider,
		providerRef:   s.ProviderRef,
		metadata:      cloneMetadata(s.Metadata),
		webhookDigest: s.WebhookDigest,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}, nil
}

func (t *Transaction) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTransactionIsNotConstructed
	}
	return nil
}

func (t *Transaction) ID() kernel.UUID {
	return t.id
}

func (t *Transaction) OrderID() kernel.UUID {
	return t.orderID
}

func (t *Transaction) Type() Type {
	return t.kind
}

func (t *Transaction) Status() string {
	return t.status
}

func (t *Transaction) Amount() kernel.Money {
	return t.amount
}

func (t *Transaction) Provider() string {
	return t.provider
}

func (t *Transaction) ProviderRef() string {
	return t.providerRef
}

func (t *Transaction) Metadata() map[string]any {
	return cloneMetadata(t.metadata)
}

func (t *Transaction) WebhookDigest() string {
	return t.webhookDigest
}

func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

// State returns the persisted form.
func (t *Transaction) State() TransactionState {
	return TransactionState{
		ID:            t.id,
		OrderID:       t.orderID,
		Type:          t.kind,
		Status:        t.status,
		Amount:        t.amount,
		Provider:      t.provider,
		ProviderRef:   t.providerRef,
		Metadata:      cloneMetadata(t.metadata),
		WebhookDigest: t.webhookDigest,
		CreatedAt:     t.createdAt,
		UpdatedAt:     t.updatedAt,
	}
}

// UpdateStatus sets a new status and merges metadata. Reports whether
// anything changed.
func (t *Transaction) UpdateStatus(status string, metadata map[string]any, now time.Time) bool {
	status = NormalizeStatus(status)
	if status == t.status && len(metadata) == 0 {
		return false
	}
	t.status = status
	maps.Copy(t.metadata, metadata)
	t.updatedAt = now
	return true
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}
