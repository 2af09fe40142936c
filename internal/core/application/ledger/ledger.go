// Package ledger keeps the escrow ledger in step with the order lifecycle and
// with what payment providers report back through webhooks.
package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/events"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/order"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"
)

type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// UnitOfWork is the slice of ports.UnitOfWork the ledger writes through.
	UnitOfWork interface {
		TxManager
		OrderRepository() ports.OrderRepository
		TransactionRepository() ports.TransactionRepository
		InvoiceRepository() ports.InvoiceRepository
		MembershipActivator() ports.MembershipActivator
	}

	UnitOfWorkFactory interface {
		Create() UnitOfWork
	}

	// WebhookObserver is told how each webhook delivery ended.
	WebhookObserver interface {
		ObserveWebhook(provider, outcome string)
	}
)

// Webhook outcomes reported to the WebhookObserver.
const (
	OutcomeApplied    = "applied"
	OutcomeDuplicate  = "duplicate"
	OutcomeRejected   = "rejected"
	OutcomeUnknownRef = "unknown_ref"
)

// ReconcileResult tells which ledger row a webhook matched. Exactly one of
// Transaction and Invoice is set. Applied is false for a re-delivery.
type ReconcileResult struct {
	Transaction *payment.Transaction
	Invoice     *payment.MembershipInvoice
	Applied     bool
}

// Ledger records escrow movements. It is registered with the event
// dispatcher for the payment-related kinds and also serves webhooks.
type Ledger struct {
	uowFactory UnitOfWorkFactory
	gateway    ports.PaymentGateway
	observer   WebhookObserver
	logger     *slog.Logger
}

// NewLedger creates the ledger for one payment gateway. A nil observer
// discards webhook outcomes.
func NewLedger(
	uowFactory UnitOfWorkFactory,
	gateway ports.PaymentGateway,
	logger *slog.Logger,
	observer WebhookObserver,
) *Ledger {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Ledger{
		uowFactory: uowFactory,
		gateway:    gateway,
		observer:   observer,
		logger:     logger.With("component", "payment_ledger", "provider", gateway.Name()),
	}
}

// Kinds lists the events Handle reacts to.
func (l *Ledger) Kinds() []events.Kind {
	return []events.Kind{
		events.PaymentDepositRequested,
		events.PaymentEscrowFunded,
		events.PaymentReleasePending,
		events.OrderClosed,
		events.DisputeRequired,
	}
}

// Handle implements the dispatcher reactor contract. Other kinds are ignored.
func (l *Ledger) Handle(ctx context.Context, ev events.Event) error {
	switch ev.Kind {
	case events.PaymentDepositRequested:
		return l.holdDeposit(ctx, ev)
	case events.PaymentEscrowFunded:
		return l.recordFunded(ctx, ev)
	case events.PaymentReleasePending:
		return l.requestRelease(ctx, ev)
	case events.OrderClosed:
		return l.settleReleases(ctx, ev)
	case events.DisputeRequired:
		return l.freezeForDispute(ctx, ev)
	default:
		return nil
	}
}

func (l *Ledger) holdDeposit(ctx context.Context, ev events.Event) error {
	total := ev.Order.Total
	if !total.IsPositive() {
		l.logger.InfoContext(ctx, "Skipping escrow hold for zero total", "order_id", ev.Order.ID.String())
		return nil
	}

	resp, err := l.gateway.Hold(ctx, ev.Order.ID, total, orderMetadata(ev))
	if err != nil {
		return errs.NewGatewayError(l.gateway.Name(), "hold", err)
	}

	return l.record(ctx, ev.Order.ID, payment.TypeEscrowHold, withDefault(resp.Status, payment.StatusHeld),
		amountOr(resp.Amount, total), resp.ProviderRef, resp.Extra)
}

func (l *Ledger) recordFunded(ctx context.Context, ev events.Event) error {
	return l.record(ctx, ev.Order.ID, payment.TypeEscrowFunded, payment.StatusFunded,
		ev.Order.Total, "", orderMetadata(ev))
}

func (l *Ledger) requestRelease(ctx context.Context, ev events.Event) error {
	holdRef, err := l.latestRef(ctx, ev.Order.ID, payment.TypeEscrowHold)
	if err != nil {
		return err
	}

	resp, err := l.gateway.Release(ctx, ev.Order.ID, holdRef, orderMetadata(ev))
	if err != nil {
		return errs.NewGatewayError(l.gateway.Name(), "release", err)
	}

	extra := maps.Clone(resp.Extra)
	if extra == nil {
		extra = map[string]any{}
	}
	if holdRef != "" {
		extra["hold_ref"] = holdRef
	}
	return l.record(ctx, ev.Order.ID, payment.TypeEscrowRelease, withDefault(resp.Status, payment.StatusPending),
		amountOr(resp.Amount, ev.Order.Total), resp.ProviderRef, extra)
}

// settleReleases marks every outstanding release of a closed order released.
func (l *Ledger) settleReleases(ctx context.Context, ev events.Event) error {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.TransactionRepository()
	releases, err := repo.ListByOrder(ctx, ev.Order.ID, payment.TypeEscrowRelease)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	settled := 0
	for _, tx := range releases {
		if tx.Status() == payment.StatusReleased {
			continue
		}
		tx.UpdateStatus(payment.StatusReleased, map[string]any{"settled_on": "order.closed"}, now)
		if err = repo.Update(ctx, tx); err != nil {
			return err
		}
		settled++
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}
	if settled > 0 {
		l.logger.InfoContext(ctx, "Escrow releases settled", "order_id", ev.Order.ID.String(), "count", settled)
	}
	return nil
}

func (l *Ledger) freezeForDispute(ctx context.Context, ev events.Event) error {
	metadata := orderMetadata(ev)
	if ev.Dispute != nil {
		metadata["dispute_id"] = ev.Dispute.DisputeID.String()
		metadata["role"] = ev.Dispute.Role
		metadata["reason"] = ev.Dispute.Reason
	}
	return l.record(ctx, ev.Order.ID, payment.TypeEscrowHoldDispute, payment.StatusOnHold,
		ev.Order.Total, "", metadata)
}

// HandleWebhook verifies a provider notification and applies it to the
// ledger row or membership invoice carrying its reference. A body that was
// already applied is reported with Applied=false and changes nothing.
func (l *Ledger) HandleWebhook(ctx context.Context, body []byte, signature string) (ReconcileResult, error) {
	provider := l.gateway.Name()

	hook, err := l.gateway.ParseWebhook(ctx, body, signature)
	if err != nil {
		l.observer.ObserveWebhook(provider, OutcomeRejected)
		return ReconcileResult{}, err
	}

	sum := sha256.Sum256(body)
	update := ports.WebhookUpdate{
		ProviderRef: hook.ProviderRef,
		Status:      hook.Status,
		Digest:      hex.EncodeToString(sum[:]),
		Payload:     hook.Payload,
		At:          time.Now().UTC(),
	}

	result, err := l.reconcile(ctx, update)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		l.observer.ObserveWebhook(provider, OutcomeUnknownRef)
		l.logger.WarnContext(ctx, "Webhook for unknown reference", "provider_ref", hook.ProviderRef)
		return ReconcileResult{}, err
	case err != nil:
		return ReconcileResult{}, err
	case !result.Applied:
		l.observer.ObserveWebhook(provider, OutcomeDuplicate)
	default:
		l.observer.ObserveWebhook(provider, OutcomeApplied)
		l.logger.InfoContext(ctx, "Webhook applied", "provider_ref", hook.ProviderRef, "status", hook.Status)
	}
	return result, nil
}

func (l *Ledger) reconcile(ctx context.Context, update ports.WebhookUpdate) (ReconcileResult, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ReconcileResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	tx, applied, err := uow.TransactionRepository().ApplyWebhook(ctx, update)
	if err == nil {
		if err = uow.Commit(ctx); err != nil {
			return ReconcileResult{}, err
		}
		return ReconcileResult{Transaction: tx, Applied: applied}, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return ReconcileResult{}, err
	}

	invoices := uow.InvoiceRepository()
	invoice, applied, err := invoices.ApplyWebhook(ctx, update)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ReconcileResult{}, errs.NewObjectNotFoundError("provider ref", update.ProviderRef)
		}
		return ReconcileResult{}, err
	}

	if applied && payment.IsSettledStatus(invoice.Status()) && invoice.MarkPaid(invoice.Status(), update.At) {
		if err = invoices.Update(ctx, invoice); err != nil {
			return ReconcileResult{}, err
		}
		if err = uow.MembershipActivator().Activate(ctx, invoice.UserID(), invoice.PlanSlug(), update.At); err != nil {
			return ReconcileResult{}, err
		}
		l.logger.InfoContext(ctx, "Membership activated",
			"user_id", invoice.UserID(), "plan", invoice.PlanSlug(), "invoice_id", invoice.ID().String())
	}

	if err = uow.Commit(ctx); err != nil {
		return ReconcileResult{}, err
	}
	return ReconcileResult{Invoice: invoice, Applied: applied}, nil
}

// CreateMembershipInvoice bills userID for a plan. A zero amount is
// complimentary: the invoice is stored active and the plan granted at once.
// Otherwise the provider checkout is started first and its reference,
// status and URL are stored with the invoice.
func (l *Ledger) CreateMembershipInvoice(
	ctx context.Context,
	userID, planSlug, planLabel string,
	amount kernel.Money,
) (*payment.MembershipInvoice, error) {
	now := time.Now().UTC()
	invoice, err := payment.NewMembershipInvoice(kernel.NewUUID(), userID, planSlug, planLabel, amount, now)
	if err != nil {
		return nil, err
	}

	if !invoice.IsComplimentary() {
		resp, err := l.gateway.CheckoutMembership(ctx, ports.MembershipCheckout{
			InvoiceID: invoice.ID(),
			UserID:    invoice.UserID(),
			PlanSlug:  invoice.PlanSlug(),
			PlanLabel: invoice.PlanLabel(),
			Amount:    invoice.Amount(),
		})
		if err != nil {
			return nil, errs.NewGatewayError(l.gateway.Name(), "checkout", err)
		}
		invoice.ApplyCheckout(payment.CheckoutResult{
			Provider:    l.gateway.Name(),
			ProviderRef: resp.ProviderRef,
			Status:      withDefault(resp.Status, payment.StatusPending),
			CheckoutURL: resp.CheckoutURL,
			Extra:       resp.Extra,
		}, now)
	}

	uow := l.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if invoice.IsComplimentary() {
		invoice.MarkPaid(payment.StatusActive, now)
		if err = uow.MembershipActivator().Activate(ctx, invoice.UserID(), invoice.PlanSlug(), now); err != nil {
			return nil, err
		}
	}
	if err = uow.InvoiceRepository().Add(ctx, invoice); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Membership invoice created",
		"invoice_id", invoice.ID().String(), "user_id", invoice.UserID(), "status", invoice.Status())
	return invoice, nil
}

// refundableStatuses are the states in which held escrow may go back to the buyer.
var refundableStatuses = map[order.Status]bool{
	order.Cancelled: true,
	order.Dispute:   true,
	order.Resolved:  true,
}

// Refund returns the order total to the buyer through the provider and
// records an escrow_refund row. The order must be cancelled or disputed and
// hold escrow that was neither refunded nor released before.
func (l *Ledger) Refund(ctx context.Context, orderID kernel.UUID) (*payment.Transaction, error) {
	o, err := l.uowFactory.Create().OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !refundableStatuses[o.Status()] {
		return nil, errs.NewValueIsInvalidErrorWithCause("order status",
			fmt.Errorf("%s orders cannot be refunded", o.Status()))
	}

	rows, err := l.uowFactory.Create().TransactionRepository().ListByOrder(ctx, orderID, "")
	if err != nil {
		return nil, err
	}
	holdRef, err := refundableHold(rows)
	if err != nil {
		return nil, err
	}

	resp, err := l.gateway.Refund(ctx, orderID, holdRef, o.Total(), map[string]any{"request_id": o.RequestID()})
	if err != nil {
		return nil, errs.NewGatewayError(l.gateway.Name(), "refund", err)
	}

	tx, err := payment.NewTransaction(kernel.NewUUID(), orderID, payment.TypeEscrowRefund,
		withDefault(resp.Status, payment.StatusRefunded), amountOr(resp.Amount, o.Total()),
		l.gateway.Name(), resp.ProviderRef, resp.Extra, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err = l.add(ctx, tx); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Escrow refunded",
		"order_id", orderID.String(), "provider_ref", tx.ProviderRef(), "amount", tx.Amount().String())
	return tx, nil
}

// refundableHold checks the order's ledger rows and returns the newest hold
// reference. Escrow counts as held once a hold or funded row exists.
func refundableHold(rows []*payment.Transaction) (string, error) {
	held := false
	holdRef := ""
	for _, tx := range rows {
		switch tx.Type() {
		case payment.TypeEscrowRefund:
			return "", errs.NewValueIsInvalidErrorWithCause("escrow", errors.New("already refunded"))
		case payment.TypeEscrowRelease:
			if tx.Status() == payment.StatusReleased {
				return "", errs.NewValueIsInvalidErrorWithCause("escrow", errors.New("already released to the seller"))
			}
		case payment.TypeEscrowHold:
			held = true
			if ref := tx.ProviderRef(); ref != "" {
				holdRef = ref
			}
		case payment.TypeEscrowFunded:
			held = true
		}
	}
	if !held {
		return "", errs.NewValueIsInvalidErrorWithCause("escrow", errors.New("no funds held"))
	}
	return holdRef, nil
}

// UpdateTransactionStatus is the manual override used by operators.
func (l *Ledger) UpdateTransactionStatus(
	ctx context.Context,
	id kernel.UUID,
	status string,
	metadata map[string]any,
) (*payment.Transaction, error) {
	if strings.TrimSpace(status) == "" {
		return nil, errs.NewValueIsRequiredError("status")
	}

	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.TransactionRepository()
	tx, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UpdateStatus(status, metadata, time.Now().UTC()) {
		if err = repo.Update(ctx, tx); err != nil {
			return nil, err
		}
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (l *Ledger) record(
	ctx context.Context,
	orderID kernel.UUID,
	kind payment.Type,
	status string,
	amount kernel.Money,
	providerRef string,
	metadata map[string]any,
) error {
	tx, err := payment.NewTransaction(kernel.NewUUID(), orderID, kind, status, amount,
		l.gateway.Name(), providerRef, metadata, time.Now().UTC())
	if err != nil {
		return err
	}
	if err = l.add(ctx, tx); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Ledger entry recorded",
		"order_id", orderID.String(), "type", string(kind), "status", tx.Status(), "provider_ref", providerRef)
	return nil
}

func (l *Ledger) add(ctx context.Context, tx *payment.Transaction) error {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.TransactionRepository().Add(ctx, tx); err != nil {
		return fmt.Errorf("recording %s: %w", tx.Type(), err)
	}
	return uow.Commit(ctx)
}

// latestRef is the provider reference of the newest row of kind, or "".
func (l *Ledger) latestRef(ctx context.Context, orderID kernel.UUID, kind payment.Type) (string, error) {
	rows, err := l.uowFactory.Create().TransactionRepository().ListByOrder(ctx, orderID, kind)
	if err != nil {
		return "", err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if ref := rows[i].ProviderRef(); ref != "" {
			return ref, nil
		}
	}
	return "", nil
}

func orderMetadata(ev events.Event) map[string]any {
	return map[string]any{
		"request_id": ev.Order.RequestID,
		"buyer_id":   ev.Order.BuyerID,
		"seller_id":  ev.Order.SellerID,
		"status":     ev.To.String(),
		"actor":      ev.Context.Actor,
	}
}

func withDefault(status, fallback string) string {
	if strings.TrimSpace(status) == "" {
		return fallback
	}
	return status
}

// amountOr prefers the amount the provider confirmed.
func amountOr(confirmed, fallback kernel.Money) kernel.Money {
	if !confirmed.IsPositive() {
		return fallback
	}
	return confirmed
}

type noopObserver struct{}

func (noopObserver) ObserveWebhook(string, string) {}
