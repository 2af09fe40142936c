package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tradeflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads orders straight from the tables; it never loads
// the aggregate.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single order reads.
// Requires a GORM database connection for query execution.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle returns ObjectNotFoundError for an unknown order. History and
// disputes are oldest first; items keep their creation order.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	db := h.db.WithContext(ctx)
	id := query.OrderID().Bytes()

	var (
		view       OrderView
		milestones datatypes.JSONType[map[string]*time.Time]
		metadata   datatypes.JSONMap
	)
	row := db.Raw(`SELECT `+orderSummaryColumns+`, milestones, metadata FROM orders WHERE id = ?`, id).Row()
	summary, err := scanOrderSummary(row, &milestones, &metadata)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderView{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
		}
		return OrderView{}, err
	}
	view.OrderSummary = summary
	view.Milestones = milestones.Data()
	view.Metadata = plainMap(metadata)

	if view.Items, err = h.items(db, id); err != nil {
		return OrderView{}, err
	}
	if view.History, err = h.history(db, id); err != nil {
		return OrderView{}, err
	}
	if view.Disputes, err = listDisputes(db, id); err != nil {
		return OrderView{}, err
	}
	return view, nil
}

func (h GetOrderQueryHandler) items(db *gorm.DB, orderID uuid.UUID) ([]ItemView, error) {
	rows, err := db.Raw(`
		SELECT id, product_id, description, quantity, unit_price, line_total, weight, metadata
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ItemView, 0)
	for rows.Next() {
		var (
			item     ItemView
			id       uuid.UUID
			metadata datatypes.JSONMap
		)
		if err = rows.Scan(
			&id, &item.ProductID, &item.Description,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &item.Weight, &metadata,
		); err != nil {
			return nil, err
		}
		if item.ID, err = toKernelID(id); err != nil {
			return nil, err
		}
		item.Metadata = plainMap(metadata)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (h GetOrderQueryHandler) history(db *gorm.DB, orderID uuid.UUID) ([]StatusLogView, error) {
	rows, err := db.Raw(`
		SELECT status, note, actor, created_at
		FROM order_status_log
		WHERE order_id = ?
		ORDER BY created_at, id
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]StatusLogView, 0)
	for rows.Next() {
		var entry StatusLogView
		if err = rows.Scan(&entry.Status, &entry.Note, &entry.Actor, &entry.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}
