// Package paymentrepo persists the escrow ledger, membership invoices and
// granted memberships.
package paymentrepo

import (
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TransactionDTO is one payment_transactions row. ProviderRef and
// WebhookDigest are NULL until known.
type TransactionDTO struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Type           string            `gorm:"column:type"`
	Status         string            `gorm:"column:status"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:numeric(20,4)"`
	Currency       string            `gorm:"column:currency"`
	Provider       string            `gorm:"column:provider"`
	ProviderRef    *string           `gorm:"column:provider_ref"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
	WebhookPayload datatypes.JSONMap `gorm:"column:webhook_payload;type:jsonb"`
	WebhookDigest  *string           `gorm:"column:webhook_digest"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (TransactionDTO) TableName() string {
	return "payment_transactions"
}

// InvoiceDTO is one membership_invoices row.
type InvoiceDTO struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID         string            `gorm:"column:user_id"`
	PlanSlug       string            `gorm:"column:plan_slug"`
	PlanLabel      string            `gorm:"column:plan_label"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:numeric(20,4)"`
	Currency       string            `gorm:"column:currency"`
	Status         string            `gorm:"column:status"`
	Provider       string            `gorm:"column:provider"`
	ProviderRef    *string           `gorm:"column:provider_ref"`
	CheckoutURL    string            `gorm:"column:checkout_url"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
	WebhookPayload datatypes.JSONMap `gorm:"column:webhook_payload;type:jsonb"`
	WebhookDigest  *string           `gorm:"column:webhook_digest"`
	PaidAt         *time.Time        `gorm:"column:paid_at"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (InvoiceDTO) TableName() string {
	return "membership_invoices"
}

// MembershipDTO is the plan currently granted to a user.
type MembershipDTO struct {
	UserID      string    `gorm:"column:user_id;primaryKey"`
	PlanSlug    string    `gorm:"column:plan_slug"`
	ActivatedAt time.Time `gorm:"column:activated_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (MembershipDTO) TableName() string {
	return "memberships"
}

func transactionFromDomain(t *payment.Transaction) TransactionDTO {
	s := t.State()
	return TransactionDTO{
		ID:            s.ID.Bytes(),
		OrderID:       s.OrderID.Bytes(),
		Type:          string(s.Type),
		Status:        s.Status,
		Amount:        s.Amount.Amount(),
		Currency:      s.Amount.Currency(),
		Provider:      s.Provider,
		ProviderRef:   nullable(s.ProviderRef),
		Metadata:      jsonMap(s.Metadata),
		WebhookDigest: nullable(s.WebhookDigest),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func transactionToDomain(dto TransactionDTO) (*payment.Transaction, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(dto.Amount, dto.Currency)
	if err != nil {
		return nil, err
	}
	return payment.RestoreTransaction(payment.TransactionState{
		ID:            id,
		OrderID:       orderID,
		Type:          payment.Type(dto.Type),
		Status:        dto.Status,
		Amount:        amount,
		Provider:      dto.Provider,
		ProviderRef:   deref(dto.ProviderRef),
		Metadata:      dto.Metadata,
		WebhookDigest: deref(dto.WebhookDigest),
		CreatedAt:     dto.CreatedAt,
		UpdatedAt:     dto.UpdatedAt,
	})
}

func invoiceFromDomain(i *payment.MembershipInvoice) InvoiceDTO {
	s := i.State()
	return InvoiceDTO{
		ID:            s.ID.Bytes(),
		UserID:        s.UserID,
		PlanSlug:      s.PlanSlug,
		PlanLabel:     s.PlanLabel,
		Amount:        s.Amount.Amount(),
		Currency:      s.Amount.Currency(),
		Status:        s.Status,
		Provider:      s.Provider,
		ProviderRef:   nullable(s.ProviderRef),
		CheckoutURL:   s.CheckoutURL,
		Metadata:      jsonMap(s.Metadata),
		WebhookDigest: nullable(s.WebhookDigest),
		PaidAt:        s.PaidAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func invoiceToDomain(dto InvoiceDTO) (*payment.MembershipInvoice, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	amount, err := kernel.NewMoney(dto.Amount, dto.Currency)
	if err != nil {
		return nil, err
	}
	return payment.RestoreMembershipInvoice(payment.InvoiceState{
		ID:            id,
		UserID:        dto.UserID,
		PlanSlug:      dto.PlanSlug,
		PlanLabel:     dto.PlanLabel,
		Amount:        amount,
		Status:        dto.Status,
		Provider:      dto.Provider,
		ProviderRef:   deref(dto.ProviderRef),
		CheckoutURL:   dto.CheckoutURL,
		Metadata:      dto.Metadata,
		WebhookDigest: deref(dto.WebhookDigest),
		PaidAt:        dto.PaidAt,
		CreatedAt:     dto.CreatedAt,
		UpdatedAt:     dto.UpdatedAt,
	})
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func jsonMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}
