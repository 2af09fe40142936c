package queries

import (
	"errors"

	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New("ListOrdersQuery must be created via NewListOrdersQuery constructor")

// ListOrdersQuery pages through orders, newest first, optionally filtered by status.
type ListOrdersQuery struct {
	limit  int
	status order.Status

	guard guard.ConstructorGuard
}

// NewListOrdersQuery clamps limit with ClampLimit. An empty status lists all
// orders; anything else must be a known status.
func NewListOrdersQuery(limit int, status string) (ListOrdersQuery, error) {
	q := ListOrdersQuery{limit: ClampLimit(limit), guard: guard.NewConstructorGuard()}
	if status == "" {
		return q, nil
	}

	parsed, err := order.ParseStatus(status)
	if err != nil {
		return ListOrdersQuery{}, err
	}
	q.status = parsed
	return q, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Limit() int {
	return q.limit
}

func (q ListOrdersQuery) Status() order.Status {
	return q.status
}
