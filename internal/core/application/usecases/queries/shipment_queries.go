package queries

import (
	"context"
	"database/sql"
	"errors"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"
	"tradeflow/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrGetShipmentQueryIsNotConstructed = errors.New(
		"GetShipmentQuery must be created via NewGetShipmentQuery or NewGetShipmentByOrderQuery",
	)
	ErrListShipmentsQueryIsNotConstructed = errors.New(
		"ListShipmentsQuery must be created via NewListShipmentsQuery constructor",
	)
)

// GetShipmentQuery selects one shipment either by its id or by its order.
type GetShipmentQuery struct {
	id      kernel.UUID
	byOrder bool

	guard guard.ConstructorGuard
}

// NewGetShipmentQuery loads a shipment with its events by id.
func NewGetShipmentQuery(shipmentID kernel.UUID) (GetShipmentQuery, error) {
	if err := shipmentID.Validate(); err != nil {
		return GetShipmentQuery{}, err
	}
	return GetShipmentQuery{id: shipmentID, guard: guard.NewConstructorGuard()}, nil
}

// NewGetShipmentByOrderQuery loads the shipment booked for an order.
func NewGetShipmentByOrderQuery(orderID kernel.UUID) (GetShipmentQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetShipmentQuery{}, err
	}
	return GetShipmentQuery{id: orderID, byOrder: true, guard: guard.NewConstructorGuard()}, nil
}

func (q GetShipmentQuery) Validate() error {
	return q.guard.Validate(ErrGetShipmentQueryIsNotConstructed)
}

type ListShipmentsQuery struct {
	limit   int
	orderID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewListShipmentsQuery lists shipments newest first, optionally for one order.
func NewListShipmentsQuery(limit int, orderID *kernel.UUID) (ListShipmentsQuery, error) {
	if orderID != nil {
		if err := orderID.Validate(); err != nil {
			return ListShipmentsQuery{}, err
		}
	}
	return ListShipmentsQuery{limit: ClampLimit(limit), orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q ListShipmentsQuery) Validate() error {
	return q.guard.Validate(ErrListShipmentsQueryIsNotConstructed)
}

type ShipmentQueryHandler struct {
	db *gorm.DB
}

// NewShipmentQueryHandler creates a handler for shipment reads.
// Requires a GORM database connection for query execution.
func NewShipmentQueryHandler(db *gorm.DB) ShipmentQueryHandler {
	return ShipmentQueryHandler{db: db}
}

// Get returns the shipment with its events, oldest first.
func (h ShipmentQueryHandler) Get(ctx context.Context, query GetShipmentQuery) (ShipmentView, error) {
	if err := query.Validate(); err != nil {
		return ShipmentView{}, err
	}

	column, param := "id", "shipment"
	if query.byOrder {
		column, param = "order_id", "shipment for order"
	}

	db := h.db.WithContext(ctx)
	row := db.Raw(`SELECT `+shipmentColumns+` FROM shipments WHERE `+column+` = ?`, query.id.Bytes()).Row()
	view, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ShipmentView{}, errs.NewObjectNotFoundError(param, query.id.String())
		}
		return ShipmentView{}, err
	}

	if view.Events, err = h.events(db, view.ID.Bytes()); err != nil {
		return ShipmentView{}, err
	}
	return view, nil
}

// List returns shipments newest first, without events.
func (h ShipmentQueryHandler) List(ctx context.Context, query ListShipmentsQuery) ([]ShipmentView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := `SELECT ` + shipmentColumns + ` FROM shipments`
	args := make([]any, 0, 2)
	if query.orderID != nil {
		stmt += ` WHERE order_id = ?`
		args = append(args, query.orderID.Bytes())
	}
	stmt += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, query.limit)

	rows, err := h.db.WithContext(ctx).Raw(stmt, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ShipmentView, 0)
	for rows.Next() {
		view, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, rows.Err()
}

func (h ShipmentQueryHandler) events(db *gorm.DB, shipmentID uuid.UUID) ([]ShipmentEventView, error) {
	rows, err := db.Raw(`
		SELECT name, note, actor, created_at
		FROM shipment_events
		WHERE shipment_id = ?
		ORDER BY created_at, id
	`, shipmentID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]ShipmentEventView, 0)
	for rows.Next() {
		var e ShipmentEventView
		if err = rows.Scan(&e.Event, &e.Note, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
