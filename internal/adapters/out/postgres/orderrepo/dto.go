// Package orderrepo maps the order aggregate, its item lines and its status
// history to the orders, order_items and order_status_log tables.
package orderrepo

import (
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderDTO is the orders row. Items are written with the order on insert
// and never updated afterwards.
type OrderDTO struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey"`
	RequestID       string            `gorm:"column:request_id"`
	BuyerID         string            `gorm:"column:buyer_id"`
	SellerID        string            `gorm:"column:seller_id"`
	Status          string            `gorm:"column:status"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(20,4)"`
	Currency        string            `gorm:"column:currency"`
	EscrowStatus    string            `gorm:"column:escrow_status"`
	PaymentStatus   string            `gorm:"column:payment_status"`
	LogisticsStatus string            `gorm:"column:logistics_status"`
	Milestones      datatypes.JSONMap `gorm:"column:milestones;type:jsonb"`
	Metadata        datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
	Version         int               `gorm:"column:version"`
	CreatedAt       time.Time         `gorm:"column:created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at"`
	Items           []OrderItemDTO    `gorm:"foreignKey:OrderID"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// OrderItemDTO is one order_items row.
type OrderItemDTO struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Position    int               `gorm:"column:position"`
	ProductID   string            `gorm:"column:product_id"`
	Description string            `gorm:"column:description"`
	Quantity    decimal.Decimal   `gorm:"column:quantity;type:numeric(20,4)"`
	UnitPrice   decimal.Decimal   `gorm:"column:unit_price;type:numeric(20,4)"`
	LineTotal   decimal.Decimal   `gorm:"column:line_total;type:numeric(20,4)"`
	Weight      decimal.Decimal   `gorm:"column:weight;type:numeric(20,4)"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

// StatusLogDTO is one order_status_log row.
type StatusLogDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid"`
	Status    string    `gorm:"column:status"`
	Note      string    `gorm:"column:note"`
	Actor     string    `gorm:"column:actor"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (StatusLogDTO) TableName() string {
	return "order_status_log"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	items := make([]OrderItemDTO, 0, len(s.Items))
	for i, item := range s.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID.Bytes(),
			OrderID:     s.ID.Bytes(),
			Position:    i,
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Weight:      item.Weight,
			Metadata:    jsonMap(item.Metadata),
		})
	}

	return OrderDTO{
		ID:              s.ID.Bytes(),
		RequestID:       s.RequestID,
		BuyerID:         s.BuyerID,
		SellerID:        s.SellerID,
		Status:          s.Status.String(),
		TotalAmount:     s.Total.Amount(),
		Currency:        s.Total.Currency(),
		EscrowStatus:    s.SubStates.Escrow,
		PaymentStatus:   s.SubStates.Payment,
		LogisticsStatus: s.SubStates.Logistics,
		Milestones:      milestonesToJSON(s.Milestones),
		Metadata:        jsonMap(s.Metadata),
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Items:           items,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	total, err := kernel.NewMoney(dto.TotalAmount, dto.Currency)
	if err != nil {
		return nil, err
	}

	items := make([]order.ItemSnapshot, 0, len(dto.Items))
	for _, item := range dto.Items {
		itemID, idErr := kernel.UUIDFromBytes(item.ID[:])
		if idErr != nil {
			return nil, idErr
		}
		items = append(items, order.ItemSnapshot{
			ID:          itemID,
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Weight:      item.Weight,
			Metadata:    item.Metadata,
		})
	}

	return order.RestoreOrder(order.Snapshot{
		ID:        id,
		RequestID: dto.RequestID,
		BuyerID:   dto.BuyerID,
		SellerID:  dto.SellerID,
		Status:    status,
		Total:     total,
		SubStates: order.SubStates{
			Escrow:    dto.EscrowStatus,
			Payment:   dto.PaymentStatus,
			Logistics: dto.LogisticsStatus,
		},
		Milestones: milestonesFromJSON(dto.Milestones),
		Metadata:   dto.Metadata,
		Items:      items,
		Version:    dto.Version,
		CreatedAt:  dto.CreatedAt,
		UpdatedAt:  dto.UpdatedAt,
	})
}

// jsonMap never returns nil: every JSON column is NOT NULL.
func jsonMap(m map[string]any) datatypes.JSONMap {
	if m == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(m)
}

// Milestones are stored as {"status": "RFC3339 time" | null}.
func milestonesToJSON(m map[string]*time.Time) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for name, at := range m {
		if at == nil {
			out[name] = nil
			continue
		}
		out[name] = at.UTC().Format(time.RFC3339Nano)
	}
	return out
}

func milestonesFromJSON(m datatypes.JSONMap) map[string]*time.Time {
	out := make(map[string]*time.Time, len(m))
	for name, raw := range m {
		s, ok := raw.(string)
		if !ok {
			out[name] = nil
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			out[name] = nil
			continue
		}
		out[name] = &at
	}
	return out
}

func statusLogFromDomain(e order.StatusLogEntry) StatusLogDTO {
	return StatusLogDTO{
		ID:        e.ID.Bytes(),
		OrderID:   e.OrderID.Bytes(),
		Status:    e.Status.String(),
		Note:      e.Note,
		Actor:     e.Actor,
		CreatedAt: e.CreatedAt,
	}
}

func statusLogToDomain(dto StatusLogDTO) (order.StatusLogEntry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.StatusLogEntry{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.StatusLogEntry{}, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return order.StatusLogEntry{}, err
	}
	return order.StatusLogEntry{
		ID:        id,
		OrderID:   orderID,
		Status:    status,
		Note:      dto.Note,
		Actor:     dto.Actor,
		CreatedAt: dto.CreatedAt,
	}, nil
}
