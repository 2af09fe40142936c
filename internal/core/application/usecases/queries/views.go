package queries

import (
	"time"

	"tradeflow/internal/core/domain/model/kernel"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ClampLimit bounds a page size to 1..MaxLimit; zero or negative means DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// OrderSummary is one row of an order listing.
type OrderSummary struct {
	ID              kernel.UUID
	RequestID       string
	BuyerID         string
	SellerID        string
	Status          string
	TotalAmount     decimal.Decimal
	Currency        string
	EscrowStatus    string
	PaymentStatus   string
	LogisticsStatus string
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderView is an order with its lines, status history and disputes.
type OrderView struct {
	OrderSummary
	Milestones map[string]*time.Time
	Metadata   map[string]any
	Items      []ItemView
	History    []StatusLogView
	Disputes   []DisputeView
}

type ItemView struct {
	ID          kernel.UUID
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Weight      decimal.Decimal
	Metadata    map[string]any
}

type StatusLogView struct {
	Status    string
	Note      string
	Actor     string
	CreatedAt time.Time
}

type DisputeView struct {
	ID         kernel.UUID
	OrderID    kernel.UUID
	OpenedBy   string
	Role       string
	Reason     string
	State      string
	Evidence   map[string]any
	Resolution string
	OpenedAt   time.Time
	ClosedAt   *time.Time
}

type TransactionView struct {
	ID          kernel.UUID
	OrderID     kernel.UUID
	Type        string
	Status      string
	Amount      decimal.Decimal
	Currency    string
	Provider    string
	ProviderRef string
	Metadata    map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InvoiceView struct {
	ID          kernel.UUID
	UserID      string
	PlanSlug    string
	PlanLabel   string
	Amount      decimal.Decimal
	Currency    string
	Status      string
	Provider    string
	ProviderRef string
	CheckoutURL string
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ShipmentView struct {
	ID               kernel.UUID
	OrderID          kernel.UUID
	BookingRef       string
	Status           string
	Carrier          string
	Incoterm         string
	PickupLocation   string
	DeliveryLocation string
	Packages         int
	TotalWeight      decimal.Decimal
	VolumeCBM        decimal.Decimal
	TrackingNumber   string
	Metadata         map[string]any
	Events           []ShipmentEventView
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ShipmentEventView struct {
	Event     string
	Note      string
	Actor     string
	CreatedAt time.Time
}
