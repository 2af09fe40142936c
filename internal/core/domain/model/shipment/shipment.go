// Package shipment models the physical movement of a trade order.
package shipment

import (
	"errors"
	"maps"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var ErrShipmentIsNotConstructed = errors.New("Shipment must be created via NewShipment or RestoreShipment")

const (
	StatusDraft     = "draft"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"

	DefaultIncoterm = "FOB"
	maxIncotermLen  = 4

	EventCreated = "created"
	EventUpdate  = "update"
)

// Details are the caller-supplied booking parameters.
type Details struct {
	Carrier          string
	Incoterm         string
	PickupLocation   string
	DeliveryLocation string
	Contacts         map[string]any
	Notes            string
}

// Totals are computed from the order lines.
type Totals struct {
	Packages    int
	TotalWeight decimal.Decimal
	VolumeCBM   decimal.Decimal
}

// CalculateTotals counts one package per line and sums weights and volumes,
// rounded to four decimals.
func CalculateTotals(items []order.ItemSnapshot) Totals {
	weight := decimal.Zero
	volume := decimal.Zero
	for _, item := range items {
		weight = weight.Add(item.Weight)
		volume = volume.Add(item.VolumeCBM())
	}
	return Totals{
		Packages:    len(items),
		TotalWeight: weight.Round(4),
		VolumeCBM:   volume.Round(4),
	}
}

// NormalizeIncoterm upper-cases and truncates to four letters; blank is FOB.
func NormalizeIncoterm(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return DefaultIncoterm
	}
	if len(s) > maxIncotermLen {
		s = s[:maxIncotermLen]
	}
	return s
}

// Shipment is at most one per order.
type Shipment struct {
	id               kernel.UUID
	orderID          kernel.UUID
	bookingRef       string
	status           string
	carrier          string
	incoterm         string
	pickupLocation   string
	deliveryLocation string
	totals           Totals
	trackingNumber   string
	metadata         map[string]any
	createdAt        time.Time
	updatedAt        time.Time

	isConstructed bool
}

// NewShipment books a draft shipment. The order id is required.
func NewShipment(
	id, orderID kernel.UUID,
	bookingRef string,
	details Details,
	totals Totals,
	now time.Time,
) (*Shipment, error) {
	if orderID.IsZero() {
		return nil, errs.NewValueIsRequiredError("order reference")
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	if len(details.Contacts) > 0 {
		metadata["contacts"] = maps.Clone(details.Contacts)
	}
	if notes := strings.TrimSpace(details.Notes); notes != "" {
		metadata["notes"] = notes
	}

	return &Shipment{
		id:               id,
		orderID:          orderID,
		bookingRef:       bookingRef,
		status:           StatusDraft,
		carrier:          strings.TrimSpace(details.Carrier),
		incoterm:         NormalizeIncoterm(details.Incoterm),
		pickupLocation:   strings.TrimSpace(details.PickupLocation),
		deliveryLocation: strings.TrimSpace(details.DeliveryLocation),
		totals:           totals,
		metadata:         metadata,
		createdAt:        now,
		updatedAt:        now,
		isConstructed:    true,
	}, nil
}

// State is the persisted form of a shipment.
type State struct {
	ID               kernel.UUID
	OrderID          kernel.UUID
	BookingRef       string
	Status           string
	Carrier          string
	Incoterm         string
	PickupLocation   string
	DeliveryLocation string
	Totals           Totals
	TrackingNumber   string
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func RestoreShipment(s State) (*Shipment, error) {
	if err := errors.Join(s.ID.Validate(), s.OrderID.Validate()); err != nil {
		return nil, err
	}
	metadata := maps.Clone(s.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Shipment{
		id:               s.ID,
		orderID:          s.OrderID,
		bookingRef:       s.BookingRef,
		status:           s.Status,
		carrier:          s.Carrier,
		incoterm:         s.Incoterm,
		pickupLocation:   s.PickupLocation,
		deliveryLocation: s.DeliveryLocation,
		totals:           s.Totals,
		trackingNumber:   s.TrackingNumber,
		metadata:         metadata,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
		isConstructed:    true,
	}, nil
}

func (s *Shipment) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrShipmentIsNotConstructed
	}
	return nil
}

func (s *Shipment) ID() kernel.UUID {
	return s.id
}

func (s *Shipment) OrderID() kernel.UUID {
	return s.orderID
}

func (s *Shipment) BookingRef() string {
	return s.bookingRef
}

func (s *Shipment) Status() string {
	return s.status
}

func (s *Shipment) TrackingNumber() string {
	return s.trackingNumber
}

func (s *Shipment) Totals() Totals {
	return s.totals
}

func (s *Shipment) State() State {
	return State{
		ID:               s.id,
		OrderID:          s.orderID,
		BookingRef:       s.bookingRef,
		Status:           s.status,
		Carrier:          s.carrier,
		Incoterm:         s.incoterm,
		PickupLocation:   s.pickupLocation,
		DeliveryLocation: s.deliveryLocation,
		Totals:           s.totals,
		TrackingNumber:   s.trackingNumber,
		Metadata:         maps.Clone(s.metadata),
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

// TrackingUpdate is a partial update; nil fields are left alone.
type TrackingUpdate struct {
	Status         *string
	TrackingNumber *string
	Carrier        *string
	Metadata       map[string]any
}

// EventName is the status being set, or "update" when no status is given.
func (u TrackingUpdate) EventName() string {
	if u.Status != nil && strings.TrimSpace(*u.Status) != "" {
		return strings.ToLower(strings.TrimSpace(*u.Status))
	}
	return EventUpdate
}

// ApplyTracking writes the provided fields and reports whether any value changed.
func (s *Shipment) ApplyTracking(u TrackingUpdate, now time.Time) bool {
	changed := false
	if u.Status != nil {
		if status := strings.ToLower(strings.TrimSpace(*u.Status)); status != "" && status != s.status {
			s.status = status
			changed = true
		}
	}
	if u.TrackingNumber != nil {
		if tn := strings.TrimSpace(*u.TrackingNumber); tn != s.trackingNumber {
			s.trackingNumber = tn
			changed = true
		}
	}
	if u.Carrier != nil {
		if carrier := strings.TrimSpace(*u.Carrier); carrier != s.carrier {
			s.carrier = carrier
			changed = true
		}
	}
	for k, v := range u.Metadata {
		s.metadata[k] = v
		changed = true
	}
	if changed {
		s.updatedAt = now
	}
	return changed
}
