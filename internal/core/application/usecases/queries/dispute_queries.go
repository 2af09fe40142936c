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
	ErrGetDisputeQueryIsNotConstructed = errors.New(
		"GetDisputeQuery must be created via NewGetDisputeQuery constructor",
	)
	ErrListDisputesByOrderQueryIsNotConstructed = errors.New(
		"ListDisputesByOrderQuery must be created via NewListDisputesByOrderQuery constructor",
	)
)

type GetDisputeQuery struct {
	disputeID kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetDisputeQuery loads one dispute by id.
func NewGetDisputeQuery(disputeID kernel.UUID) (GetDisputeQuery, error) {
	if err := disputeID.Validate(); err != nil {
		return GetDisputeQuery{}, err
	}
	return GetDisputeQuery{disputeID: disputeID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDisputeQuery) Validate() error {
	return q.guard.Validate(ErrGetDisputeQueryIsNotConstructed)
}

type ListDisputesByOrderQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewListDisputesByOrderQuery lists an order's disputes oldest first.
func NewListDisputesByOrderQuery(orderID kernel.UUID) (ListDisputesByOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return ListDisputesByOrderQuery{}, err
	}
	return ListDisputesByOrderQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q ListDisputesByOrderQuery) Validate() error {
	return q.guard.Validate(ErrListDisputesByOrderQueryIsNotConstructed)
}

// DisputeQueryHandler answers both dispute queries.
type DisputeQueryHandler struct {
	db *gorm.DB
}

// NewDisputeQueryHandler creates a handler for dispute reads.
// Requires a GORM database connection for query execution.
func NewDisputeQueryHandler(db *gorm.DB) DisputeQueryHandler {
	return DisputeQueryHandler{db: db}
}

func (h DisputeQueryHandler) Get(ctx context.Context, query GetDisputeQuery) (DisputeView, error) {
	if err := query.Validate(); err != nil {
		return DisputeView{}, err
	}

	row := h.db.WithContext(ctx).
		Raw(`SELECT `+disputeColumns+` FROM order_disputes WHERE id = ?`, query.disputeID.Bytes()).
		Row()
	view, err := scanDispute(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DisputeView{}, errs.NewObjectNotFoundError("dispute", query.disputeID.String())
	}
	return view, err
}

// ListByOrder returns the disputes of an order, oldest first. An order
// without disputes yields an empty slice.
func (h DisputeQueryHandler) ListByOrder(ctx context.Context, query ListDisputesByOrderQuery) ([]DisputeView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return listDisputes(h.db.WithContext(ctx), query.orderID.Bytes())
}

func listDisputes(db *gorm.DB, orderID uuid.UUID) ([]DisputeView, error) {
	rows, err := db.Raw(`
		SELECT `+disputeColumns+`
		FROM order_disputes
		WHERE order_id = ?
		ORDER BY opened_at, id
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disputes := make([]DisputeView, 0)
	for rows.Next() {
		view, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, view)
	}
	return disputes, rows.Err()
}
