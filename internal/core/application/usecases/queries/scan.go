package queries

import (
	"tradeflow/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func toKernelID(id uuid.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func plainMap(m datatypes.JSONMap) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any(m)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const orderSummaryColumns = `
	id, request_id, buyer_id, seller_id, status,
	total_amount, currency, escrow_status, payment_status, logistics_status,
	version, created_at, updated_at`

func scanOrderSummary(row rowScanner, extra ...any) (OrderSummary, error) {
	var (
		s  OrderSummary
		id uuid.UUID
	)
	dest := append([]any{
		&id, &s.RequestID, &s.BuyerID, &s.SellerID, &s.Status,
		&s.TotalAmount, &s.Currency, &s.EscrowStatus, &s.PaymentStatus, &s.LogisticsStatus,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return OrderSummary{}, err
	}

	orderID, err := toKernelID(id)
	if err != nil {
		return OrderSummary{}, err
	}
	s.ID = orderID
	return s, nil
}

const disputeColumns = `
	id, order_id, opened_by, role, reason, state, evidence, resolution, opened_at, closed_at`

func scanDispute(row rowScanner) (DisputeView, error) {
	var (
		d           DisputeView
		id, orderID uuid.UUID
		evidence    datatypes.JSONMap
	)
	if err := row.Scan(
		&id, &orderID, &d.OpenedBy, &d.Role, &d.Reason, &d.State,
		&evidence, &d.Resolution, &d.OpenedAt, &d.ClosedAt,
	); err != nil {
		return DisputeView{}, err
	}

	var err error
	if d.ID, err = toKernelID(id); err != nil {
		return DisputeView{}, err
	}
	if d.OrderID, err = toKernelID(orderID); err != nil {
		return DisputeView{}, err
	}
	d.Evidence = plainMap(evidence)
	return d, nil
}

const transactionColumns = `
	id, order_id, type, status, amount, currency, provider, provider_ref, metadata, created_at, updated_at`

func scanTransaction(row rowScanner) (TransactionView, error) {
	var (
		t           TransactionView
		id, orderID uuid.UUID
		ref         *string
		metadata    datatypes.JSONMap
	)
	if err := row.Scan(
		&id, &orderID, &t.Type, &t.Status, &t.Amount, &t.Currency,
		&t.Provider, &ref, &metadata, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return TransactionView{}, err
	}

	var err error
	if t.ID, err = toKernelID(id); err != nil {
		return TransactionView{}, err
	}
	if t.OrderID, err = toKernelID(orderID); err != nil {
		return TransactionView{}, err
	}
	t.ProviderRef = derefString(ref)
	t.Metadata = plainMap(metadata)
	return t, nil
}

const shipmentColumns = `
	id, order_id, booking_ref, status, carrier, incoterm, pickup_location, delivery_location,
	packages, total_weight, volume_cbm, tracking_number, metadata, created_at, updated_at`

func scanShipment(row rowScanner) (ShipmentView, error) {
	var (
		s           ShipmentView
		id, orderID uuid.UUID
		metadata    datatypes.JSONMap
	)
	if err := row.Scan(
		&id, &orderID, &s.BookingRef, &s.Status, &s.Carrier, &s.Incoterm,
		&s.PickupLocation, &s.DeliveryLocation, &s.Packages, &s.TotalWeight, &s.VolumeCBM,
		&s.TrackingNumber, &metadata, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return ShipmentView{}, err
	}

	var err error
	if s.ID, err = toKernelID(id); err != nil {
		return ShipmentView{}, err
	}
	if s.OrderID, err = toKernelID(orderID); err != nil {
		return ShipmentView{}, err
	}
	s.Metadata = plainMap(metadata)
	return s, nil
}
