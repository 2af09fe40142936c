package http

import (
	"time"

	"tradeflow/internal/core/application/usecases/commands"
	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/domain/model/shipment"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Weight      decimal.Decimal `json:"weight"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

type NewOrder struct {
	RequestID      string         `json:"request_id"`
	BuyerID        string         `json:"buyer_id"`
	SellerID       string         `json:"seller_id"`
	Currency       string         `json:"currency"`
	MembershipTier string         `json:"membership_tier"`
	Items          []OrderLine    `json:"items"`
	Metadata       map[string]any `json:"metadata"`
	Actor          string         `json:"actor"`
}

type StatusChange struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Actor  string `json:"actor"`
}

type NewDispute struct {
	OpenedBy string         `json:"opened_by"`
	Role     string         `json:"role"`
	Reason   string         `json:"reason"`
	Evidence map[string]any `json:"evidence"`
}

type DisputeResolution struct {
	Outcome    string `json:"outcome"`
	Resolution string `json:"resolution"`
	Actor      string `json:"actor"`
}

type TrackingChange struct {
	Status         *string        `json:"status"`
	TrackingNumber *string        `json:"tracking_number"`
	Carrier        *string        `json:"carrier"`
	Metadata       map[string]any `json:"metadata"`
	Note           string         `json:"note"`
	Actor          string         `json:"actor"`
}

type PaymentStatusChange struct {
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata"`
}

type NewMembershipInvoice struct {
	UserID    string          `json:"user_id"`
	PlanSlug  string          `json:"plan_slug"`
	PlanLabel string          `json:"plan_label"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

type Order struct {
	ID              string                `json:"id"`
	RequestID       string                `json:"request_id"`
	BuyerID         string                `json:"buyer_id"`
	SellerID        string                `json:"seller_id"`
	Status          string                `json:"status"`
	Total           string                `json:"total"`
	Currency        string                `json:"currency"`
	EscrowStatus    string                `json:"escrow_status"`
	PaymentStatus   string                `json:"payment_status"`
	LogisticsStatus string                `json:"logistics_status"`
	Version         int                   `json:"version"`
	Milestones      map[string]*time.Time `json:"milestones,omitempty"`
	Metadata        map[string]any        `json:"metadata,omitempty"`
	Items           []Item                `json:"items,omitempty"`
	History         []StatusLog           `json:"history,omitempty"`
	Disputes        []Dispute             `json:"disputes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type Item struct {
	ID          string         `json:"id"`
	ProductID   string         `json:"product_id"`
	Description string         `json:"description"`
	Quantity    string         `json:"quantity"`
	UnitPrice   string         `json:"unit_price"`
	LineTotal   string         `json:"line_total"`
	Weight      string         `json:"weight"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type StatusLog struct {
	Status    string    `json:"status"`
	Note      string    `json:"note"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type Dispute struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"order_id"`
	OpenedBy   string         `json:"opened_by"`
	Role       string         `json:"role"`
	Reason     string         `json:"reason"`
	State      string         `json:"state"`
	Evidence   map[string]any `json:"evidence,omitempty"`
	Resolution string         `json:"resolution,omitempty"`
	OpenedAt   time.Time      `json:"opened_at"`
	ClosedAt   *time.Time     `json:"closed_at,omitempty"`
}

// Transition answers every call that may move an order.
type Transition struct {
	Order           Order    `json:"order"`
	Changed         bool     `json:"changed"`
	DisputeID       string   `json:"dispute_id,omitempty"`
	ReactorFailures []string `json:"reactor_failures,omitempty"`
}

type Transaction struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency"`
	Provider    string         `json:"provider"`
	ProviderRef string         `json:"provider_ref,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Invoice struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	PlanSlug    string     `json:"plan_slug"`
	PlanLabel   string     `json:"plan_label"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	Provider    string     `json:"provider,omitempty"`
	ProviderRef string     `json:"provider_ref,omitempty"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Shipment struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	BookingRef       string          `json:"booking_ref"`
	Status           string          `json:"status"`
	Carrier          string          `json:"carrier,omitempty"`
	Incoterm         string          `json:"incoterm"`
	PickupLocation   string          `json:"pickup_location,omitempty"`
	DeliveryLocation string          `json:"delivery_location,omitempty"`
	Packages         int             `json:"packages"`
	TotalWeight      string          `json:"total_weight"`
	VolumeCBM        string          `json:"volume_cbm"`
	TrackingNumber   string          `json:"tracking_number,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	Events           []ShipmentEvent `json:"events,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ShipmentEvent struct {
	Event     string    `json:"event"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookAck reports how a webhook was reconciled.
type WebhookAck struct {
	Applied     bool   `json:"applied"`
	Target      string `json:"target"`
	ID          string `json:"id"`
	ProviderRef string `json:"provider_ref"`
	Status      string `json:"status"`
}

func orderFromSnapshot(s order.Snapshot) Order {
	return Order{
		ID:              s.ID.String(),
		RequestID:       s.RequestID,
		BuyerID:         s.BuyerID,
		SellerID:        s.SellerID,
		Status:          s.Status.String(),
		Total:           s.Total.Rounded().StringFixed(2),
		Currency:        s.Total.Currency(),
		EscrowStatus:    s.SubStates.Escrow,
		PaymentStatus:   s.SubStates.Payment,
		LogisticsStatus: s.SubStates.Logistics,
		Version:         s.Version,
		Milestones:      s.Milestones,
		Metadata:        s.Metadata,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func orderFromSummary(v queries.OrderSummary) Order {
	return Order{
		ID:              v.ID.String(),
		RequestID:       v.RequestID,
		BuyerID:         v.BuyerID,
		SellerID:        v.SellerID,
		Status:          v.Status,
		Total:           v.TotalAmount.StringFixed(2),
		Currency:        v.Currency,
		EscrowStatus:    v.EscrowStatus,
		PaymentStatus:   v.PaymentStatus,
		LogisticsStatus: v.LogisticsStatus,
		Version:         v.Version,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func orderFromView(v queries.OrderView) Order {
	out := orderFromSummary(v.OrderSummary)
	out.Milestones = v.Milestones
	out.Metadata = v.Metadata
	for _, item := range v.Items {
		out.Items = append(out.Items, Item{
			ID:          item.ID.String(),
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.String(),
			LineTotal:   item.LineTotal.StringFixed(2),
			Weight:      item.Weight.String(),
			Metadata:    item.Metadata,
		})
	}
	for _, h := range v.History {
		out.History = append(out.History, StatusLog(h))
	}
	for _, d := range v.Disputes {
		out.Disputes = append(out.Disputes, disputeFromView(d))
	}
	return out
}

func disputeFromView(v queries.DisputeView) Dispute {
	return Dispute{
		ID:         v.ID.String(),
		OrderID:    v.OrderID.String(),
		OpenedBy:   v.OpenedBy,
		Role:       v.Role,
		Reason:     v.Reason,
		State:      v.State,
		Evidence:   v.Evidence,
		Resolution: v.Resolution,
		OpenedAt:   v.OpenedAt,
		ClosedAt:   v.ClosedAt,
	}
}

func transitionFromResult(r commands.TransitionResult) Transition {
	out := Transition{Order: orderFromSnapshot(r.Order), Changed: r.Changed}
	for _, f := range r.ReactorFailures {
		out.ReactorFailures = append(out.ReactorFailures, f.Error())
	}
	return out
}

func transactionFromView(v queries.TransactionView) Transaction {
	return Transaction{
		ID:          v.ID.String(),
		OrderID:     v.OrderID.String(),
		Type:        v.Type,
		Status:      v.Status,
		Amount:      v.Amount.StringFixed(2),
		Currency:    v.Currency,
		Provider:    v.Provider,
		ProviderRef: v.ProviderRef,
		Metadata:    v.Metadata,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func transactionFromDomain(tx *payment.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID().String(),
		OrderID:     tx.OrderID().String(),
		Type:        string(tx.Type()),
		Status:      tx.Status(),
		Amount:      tx.Amount().Rounded().StringFixed(2),
		Currency:    tx.Amount().Currency(),
		Provider:    tx.Provider(),
		ProviderRef: tx.ProviderRef(),
		Metadata:    tx.Metadata(),
		CreatedAt:   tx.CreatedAt(),
		UpdatedAt:   tx.UpdatedAt(),
	}
}

func invoiceFromView(v queries.InvoiceView) Invoice {
	return Invoice{
		ID:          v.ID.String(),
		UserID:      v.UserID,
		PlanSlug:    v.PlanSlug,
		PlanLabel:   v.PlanLabel,
		Amount:      v.Amount.StringFixed(2),
		Currency:    v.Currency,
		Status:      v.Status,
		Provider:    v.Provider,
		ProviderRef: v.ProviderRef,
		CheckoutURL: v.CheckoutURL,
		PaidAt:      v.PaidAt,
		CreatedAt:   v.CreatedAt,
	}
}

func invoiceFromDomain(i *payment.MembershipInvoice) Invoice {
	s := i.State()
	return Invoice{
		ID:          s.ID.String(),
		UserID:      s.UserID,
		PlanSlug:    s.PlanSlug,
		PlanLabel:   s.PlanLabel,
		Amount:      s.Amount.Rounded().StringFixed(2),
		Currency:    s.Amount.Currency(),
		Status:      s.Status,
		Provider:    s.Provider,
		ProviderRef: s.ProviderRef,
		CheckoutURL: s.CheckoutURL,
		PaidAt:      s.PaidAt,
		CreatedAt:   s.CreatedAt,
	}
}

func shipmentFromView(v queries.ShipmentView) Shipment {
	out := Shipment{
		ID:               v.ID.String(),
		OrderID:          v.OrderID.String(),
		BookingRef:       v.BookingRef,
		Status:           v.Status,
		Carrier:          v.Carrier,
		Incoterm:         v.Incoterm,
		PickupLocation:   v.PickupLocation,
		DeliveryLocation: v.DeliveryLocation,
		Packages:         v.Packages,
		TotalWeight:      v.TotalWeight.String(),
		VolumeCBM:        v.VolumeCBM.String(),
		TrackingNumber:   v.TrackingNumber,
		Metadata:         v.Metadata,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
	for _, e := range v.Events {
		out.Events = append(out.Events, ShipmentEvent(e))
	}
	return out
}

func shipmentFromDomain(sh *shipment.Shipment) Shipment {
	s := sh.State()
	return Shipment{
		ID:               s.ID.String(),
		OrderID:          s.OrderID.String(),
		BookingRef:       s.BookingRef,
		Status:           s.Status,
		Carrier:          s.Carrier,
		Incoterm:         s.Incoterm,
		PickupLocation:   s.PickupLocation,
		DeliveryLocation: s.DeliveryLocation,
		Packages:         s.Totals.Packages,
		TotalWeight:      s.Totals.TotalWeight.String(),
		VolumeCBM:        s.Totals.VolumeCBM.String(),
		TrackingNumber:   s.TrackingNumber,
		Metadata:         s.Metadata,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
