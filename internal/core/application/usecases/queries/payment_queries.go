package queries

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"
	"tradeflow/internal/pkg/guard"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrListPaymentsQueryIsNotConstructed = errors.New(
		"ListPaymentsQuery must be created via NewListPaymentsQuery constructor",
	)
	ErrGetTransactionQueryIsNotConstructed = errors.New(
		"GetTransactionQuery must be created via NewGetTransactionQuery constructor",
	)
	ErrListInvoicesQueryIsNotConstructed = errors.New(
		"ListInvoicesQuery must be created via NewListInvoicesQuery constructor",
	)
)

// ListPaymentsQuery lists ledger rows newest first, optionally for one order.
type ListPaymentsQuery struct {
	limit   int
	orderID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewListPaymentsQuery clamps limit to 1..200. A nil orderID lists every order.
func NewListPaymentsQuery(limit int, orderID *kernel.UUID) (ListPaymentsQuery, error) {
	if orderID != nil {
		if err := orderID.Validate(); err != nil {
			return ListPaymentsQuery{}, err
		}
	}
	return ListPaymentsQuery{limit: ClampLimit(limit), orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q ListPaymentsQuery) Validate() error {
	return q.guard.Validate(ErrListPaymentsQueryIsNotConstructed)
}

func (q ListPaymentsQuery) Limit() int {
	return q.limit
}

type GetTransactionQuery struct {
	id kernel.UUID

	guard guard.ConstructorGuard
}

// NewGetTransactionQuery loads one ledger row by id.
func NewGetTransactionQuery(id kernel.UUID) (GetTransactionQuery, error) {
	if err := id.Validate(); err != nil {
		return GetTransactionQuery{}, err
	}
	return GetTransactionQuery{id: id, guard: guard.NewConstructorGuard()}, nil
}

func (q GetTransactionQuery) Validate() error {
	return q.guard.Validate(ErrGetTransactionQueryIsNotConstructed)
}

// ListInvoicesQuery lists membership invoices newest first, optionally for one user.
type ListInvoicesQuery struct {
	limit  int
	userID string

	guard guard.ConstructorGuard
}

// NewListInvoicesQuery lists membership invoices, optionally for one user.
func NewListInvoicesQuery(limit int, userID string) ListInvoicesQuery {
	return ListInvoicesQuery{
		limit:  ClampLimit(limit),
		userID: strings.TrimSpace(userID),
		guard:  guard.NewConstructorGuard(),
	}
}

func (q ListInvoicesQuery) Validate() error {
	return q.guard.Validate(ErrListInvoicesQueryIsNotConstructed)
}

// PaymentQueryHandler answers the ledger and invoice queries.
type PaymentQueryHandler struct {
	db *gorm.DB
}

// NewPaymentQueryHandler creates a handler for ledger and invoice reads.
// Requires a GORM database connection for query execution.
func NewPaymentQueryHandler(db *gorm.DB) PaymentQueryHandler {
	return PaymentQueryHandler{db: db}
}

func (h PaymentQueryHandler) List(ctx context.Context, query ListPaymentsQuery) ([]TransactionView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := `SELECT ` + transactionColumns + ` FROM payment_transactions`
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

	out := make([]TransactionView, 0)
	for rows.Next() {
		view, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, rows.Err()
}

func (h PaymentQueryHandler) Get(ctx context.Context, query GetTransactionQuery) (TransactionView, error) {
	if err := query.Validate(); err != nil {
		return TransactionView{}, err
	}

	row := h.db.WithContext(ctx).
		Raw(`SELECT `+transactionColumns+` FROM payment_transactions WHERE id = ?`, query.id.Bytes()).
		Row()
	view, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TransactionView{}, errs.NewObjectNotFoundError("payment transaction", query.id.String())
	}
	return view, err
}

func (h PaymentQueryHandler) ListInvoices(ctx context.Context, query ListInvoicesQuery) ([]InvoiceView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := `
		SELECT id, user_id, plan_slug, plan_label, amount, currency, status,
			provider, provider_ref, checkout_url, paid_at, created_at, updated_at
		FROM membership_invoices`
	args := make([]any, 0, 2)
	if query.userID != "" {
		stmt += ` WHERE user_id = ?`
		args = append(args, query.userID)
	}
	stmt += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, query.limit)

	rows, err := h.db.WithContext(ctx).Raw(stmt, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InvoiceView, 0)
	for rows.Next() {
		var (
			view InvoiceView
			id   uuid.UUID
			ref  *string
		)
		if err = rows.Scan(
			&id, &view.UserID, &view.PlanSlug, &view.PlanLabel, &view.Amount, &view.Currency, &view.Status,
			&view.Provider, &ref, &view.CheckoutURL, &view.PaidAt, &view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if view.ID, err = toKernelID(id); err != nil {
			return nil, err
		}
		view.ProviderRef = derefString(ref)
		out = append(out, view)
	}
	return out, rows.Err()
}
