package http

import (
	"errors"
	"io"
	"net/http"

	"tradeflow/internal/core/application/usecases/queries"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps a provider notification. Larger bodies get 413.
const maxWebhookBody = "1M"

// ListPayments handles GET /api/v1/payments?order_id=&limit=.
func (s *Server) ListPayments(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}
	orderID, err := optionalID(c, "order_id")
	if err != nil {
		return err
	}
	query, err := queries.NewListPaymentsQuery(limit, orderID)
	if err != nil {
		return err
	}

	views, err := s.h.Payments.List(c.Request().Context(), query)
	if err != nil {
		return err
	}
	out := make([]Transaction, 0, len(views))
	for _, v := range views {
		out = append(out, transactionFromView(v))
	}
	return c.JSON(http.StatusOK, out)
}

// GetPayment handles GET /api/v1/payments/:id.
func (s *Server) GetPayment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	query, err := queries.NewGetTransactionQuery(id)
	if err != nil {
		return err
	}

	view, err := s.h.Payments.Get(c.Request().Context(), query)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transactionFromView(view))
}

// UpdatePaymentStatus handles PATCH /api/v1/payments/:id.
func (s *Server) UpdatePaymentStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req PaymentStatusChange
	if err = c.Bind(&req); err != nil {
		return err
	}

	tx, err := s.h.Ledger.UpdateTransactionStatus(c.Request().Context(), id, req.Status, req.Metadata)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transactionFromDomain(tx))
}

// Refund handles POST /api/v1/orders/:id/refund.
func (s *Server) Refund(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	tx, err := s.h.Ledger.Refund(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, transactionFromDomain(tx))
}

// Webhook handles POST /api/v1/payments/webhook. The raw body is what the
// provider signed, so it is read before any decoding.
func (s *Server) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
			return err
		}
		return errs.NewPayloadIsInvalidError("webhook", err)
	}

	result, err := s.h.Ledger.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return err
	}

	ack := WebhookAck{Applied: result.Applied}
	switch {
	case result.Transaction != nil:
		ack.Target = "transaction"
		ack.ID = result.Transaction.ID().String()
		ack.ProviderRef = result.Transaction.ProviderRef()
		ack.Status = result.Transaction.Status()
	case result.Invoice != nil:
		ack.Target = "invoice"
		ack.ID = result.Invoice.ID().String()
		ack.ProviderRef = result.Invoice.ProviderRef()
		ack.Status = result.Invoice.Status()
	}
	return c.JSON(http.StatusOK, ack)
}

// CreateMembershipInvoice handles POST /api/v1/memberships/invoices.
func (s *Server) CreateMembershipInvoice(c echo.Context) error {
	var req NewMembershipInvoice
	if err := c.Bind(&req); err != nil {
		return err
	}
	amount, err := kernel.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return err
	}

	invoice, err := s.h.Ledger.CreateMembershipInvoice(c.Request().Context(), req.UserID, req.PlanSlug, req.PlanLabel, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invoiceFromDomain(invoice))
}

// ListInvoices handles GET /api/v1/memberships/invoices?user_id=&limit=.
func (s *Server) ListInvoices(c echo.Context) error {
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	views, err := s.h.Payments.ListInvoices(c.Request().Context(), queries.NewListInvoicesQuery(limit, c.QueryParam("user_id")))
	if err != nil {
		return err
	}
	out := make([]Invoice, 0, len(views))
	for _, v := range views {
		out = append(out, invoiceFromView(v))
	}
	return c.JSON(http.StatusOK, out)
}
