package shipmentrepo

import (
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/shipment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ShipmentDTO struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID          uuid.UUID         `gorm:"column:order_id;type:uuid"`
	BookingRef       string            `gorm:"column:booking_ref"`
	Status           string            `gorm:"column:status"`
	Carrier          string            `gorm:"column:carrier"`
	Incoterm         string            `gorm:"column:incoterm"`
	PickupLocation   string            `gorm:"column:pickup_location"`
	DeliveryLocation string            `gorm:"column:delivery_location"`
	Packages         int               `gorm:"column:packages"`
	TotalWeight      decimal.Decimal   `gorm:"column:total_weight;type:numeric(20,4)"`
	VolumeCBM        decimal.Decimal   `gorm:"column:volume_cbm;type:numeric(20,4)"`
	TrackingNumber   string            `gorm:"column:tracking_number"`
	Metadata         datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
	CreatedAt        time.Time         `gorm:"column:created_at"`
	UpdatedAt        time.Time         `gorm:"column:updated_at"`
}

func (ShipmentDTO) TableName() string {
	return "shipments"
}

type EventDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShipmentID uuid.UUID `gorm:"column:shipment_id;type:uuid"`
	Name       string    `gorm:"column:name"`
	Note       string    `gorm:"column:note"`
	Actor      string    `gorm:"column:actor"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (EventDTO) TableName() string {
	return "shipment_events"
}

func fromDomain(s *shipment.Shipment) ShipmentDTO {
	st := s.State()
	metadata := datatypes.JSONMap(st.Metadata)
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	return ShipmentDTO{
		ID:               st.ID.Bytes(),
		OrderID:          st.OrderID.Bytes(),
		BookingRef:       st.BookingRef,
		Status:           st.Status,
		Carrier:          st.Carrier,
		Incoterm:         st.Incoterm,
		PickupLocation:   st.PickupLocation,
		DeliveryLocation: st.DeliveryLocation,
		Packages:         st.Totals.Packages,
		TotalWeight:      st.Totals.TotalWeight,
		VolumeCBM:        st.Totals.VolumeCBM,
		TrackingNumber:   st.TrackingNumber,
		Metadata:         metadata,
		CreatedAt:        st.CreatedAt,
		UpdatedAt:        st.UpdatedAt,
	}
}

func toDomain(dto ShipmentDTO) (*shipment.Shipment, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	return shipment.RestoreShipment(shipment.State{
		ID:               id,
		OrderID:          orderID,
		BookingRef:       dto.BookingRef,
		Status:           dto.Status,
		Carrier:          dto.Carrier,
		Incoterm:         dto.Incoterm,
		PickupLocation:   dto.PickupLocation,
		DeliveryLocation: dto.DeliveryLocation,
		Totals: shipment.Totals{
			Packages:    dto.Packages,
			TotalWeight: dto.TotalWeight,
			VolumeCBM:   dto.VolumeCBM,
		},
		TrackingNumber: dto.TrackingNumber,
		Metadata:       dto.Metadata,
		CreatedAt:      dto.CreatedAt,
		UpdatedAt:      dto.UpdatedAt,
	})
}

func eventFromDomain(e shipment.Event) EventDTO {
	return EventDTO{
		ID:         e.ID.Bytes(),
		ShipmentID: e.ShipmentID.Bytes(),
		Name:       e.Name,
		Note:       e.Note,
		Actor:      e.Actor,
		CreatedAt:  e.CreatedAt,
	}
}

func eventToDomain(dto EventDTO) (shipment.Event, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return shipment.Event{}, err
	}
	shipmentID, err := kernel.UUIDFromBytes(dto.ShipmentID[:])
	if err != nil {
		return shipment.Event{}, err
	}
	return shipment.Event{
		ID:         id,
		ShipmentID: shipmentID,
		Name:       dto.Name,
		Note:       dto.Note,
		Actor:      dto.Actor,
		CreatedAt:  dto.CreatedAt,
	}, nil
}
