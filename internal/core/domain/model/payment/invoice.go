package payment

import (
	"errors"
	"strings"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"
)

var ErrInvoiceIsNotConstructed = errors.New("MembershipInvoice must be created via NewMembershipInvoice or RestoreMembershipInvoice")

// IsSettledStatus reports gateway statuses that activate a membership.
func IsSettledStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusPaid, StatusActive, StatusCompleted:
		return true
	default:
		return false
	}
}

// CheckoutResult is what a gateway returned when a membership checkout started.
type CheckoutResult struct {
	Provider    string
	ProviderRef string
	Status      string
	CheckoutURL string
	Extra       map[string]any
}

// MembershipInvoice bills a user for a membership plan. Zero-amount plans are
// complimentary and activate immediately.
type MembershipInvoice struct {
	id            kernel.UUID
	userID        string
	planSlug      string
	planLabel     string
	amount        kernel.Money
	status        string
	provider      string
	providerRef   string
	checkoutURL   string
	metadata      map[string]any
	webhookDigest string
	paidAt        *time.Time
	createdAt     time.Time
	updatedAt     time.Time

	isConstructed bool
}

// NewMembershipInvoice creates a pending invoice, or a complimentary one when
// the amount is zero.
func NewMembershipInvoice(
	id kernel.UUID,
	userID, planSlug, planLabel string,
	amount kernel.Money,
	now time.Time,
) (*MembershipInvoice, error) {
	userID = strings.TrimSpace(userID)
	planSlug = strings.ToLower(strings.TrimSpace(planSlug))

	var problems []error
	problems = append(problems, id.Validate())
	if userID == "" {
		problems = append(problems, errs.NewValueIsRequiredError("user"))
	}
	if planSlug == "" {
		problems = append(problems, errs.NewValueIsRequiredError("plan"))
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}

	status := StatusPending
	if !amount.IsPositive() {
		status = StatusComplimentary
	}
	label := strings.TrimSpace(planLabel)
	if label == "" {
		label = planSlug
	}

	return &MembershipInvoice{
		id:            id,
		userID:        userID,
		planSlug:      planSlug,
		planLabel:     label,
		amount:        amount,
		status:        status,
		metadata:      map[string]any{},
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}, nil
}

// InvoiceState is the persisted form used by RestoreMembershipInvoice.
type InvoiceState struct {
	ID            kernel.UUID
	UserID        string
	PlanSlug      string
	PlanLabel     string
	Amount        kernel.Money
	Status        string
	Provider      string
	ProviderRef   string
	CheckoutURL   string
	Metadata      map[string]any
	WebhookDigest string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func RestoreMembershipInvoice(s InvoiceState) (*MembershipInvoice, error) {
	if err := s.ID.Validate(); err != nil {
		return nil, err
	}
	return &MembershipInvoice{
		id:            s.ID,
		userID:        s.UserID,
		planSlug:      s.PlanSlug,
		planLabel:     s.PlanLabel,
		amount:        s.Amount,
		status:        s.Status,
		provider:      s.Provider,
		providerRef:   s.ProviderRef,
		checkoutURL:   s.CheckoutURL,
		metadata:      cloneMetadata(s.Metadata),
		webhookDigest: s.WebhookDigest,
		paidAt:        s.PaidAt,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}, nil
}

func (i *MembershipInvoice) Validate() error {
	if i == nil || !i.isConstructed {
		return ErrInvoiceIsNotConstructed
	}
	return nil
}

func (i *MembershipInvoice) ID() kernel.UUID { return i.id }
func (i *MembershipInvoice) UserID() string { return i.userID }
func (i *MembershipInvoice) PlanSlug() string { return i.planSlug }
func (i *MembershipInvoice) PlanLabel() string { return i.planLabel }
func (i *MembershipInvoice) Amount() kernel.Money { return i.amount }
func (i *MembershipInvoice) Status() string { return i.status }
func (i *MembershipInvoice) ProviderRef() string { return i.providerRef }
func (i *MembershipInvoice) CheckoutURL() string { return i.checkoutURL }
func (i *MembershipInvoice) PaidAt() *time.Time { return i.paidAt }

// IsComplimentary reports an invoice that needs no gateway checkout.
func (i *MembershipInvoice) IsComplimentary() bool {
	return i.status == StatusComplimentary
}

// State returns the persisted form.
func (i *MembershipInvoice) State() InvoiceState {
	return InvoiceState{
		ID:            i.id,
		UserID:        i.userID,
		PlanSlug:      i.planSlug,
		PlanLabel:     i.planLabel,
		Amount:        i.amount,
		Status:        i.status,
		Provider:      i.provider,
		ProviderRef:   i.providerRef,
		CheckoutURL:   i.checkoutURL,
		Metadata:      cloneMetadata(i.metadata),
		WebhookDigest: i.webhookDigest,
		PaidAt:        i.paidAt,
		CreatedAt:     i.createdAt,
		UpdatedAt:     i.updatedAt,
	}
}

// ApplyCheckout stores what the gateway returned for a paid plan.
func (i *MembershipInvoice) ApplyCheckout(result CheckoutResult, now time.Time) {
	i.provider = result.Provider
	i.providerRef = strings.TrimSpace(result.ProviderRef)
	i.status = NormalizeStatus(result.Status)
	i.checkoutURL = result.CheckoutURL
	for k, v := range result.Extra {
		i.metadata[k] = v
	}
	i.updatedAt = now
}

// MarkPaid stamps paid_at once and sets status. Returns false if the invoice
// was already paid, so membership activation happens exactly once.
func (i *MembershipInvoice) MarkPaid(status string, now time.Time) bool {
	if i.paidAt != nil {
		return false
	}
	paidAt := now
	i.paidAt = &paidAt
	i.status = NormalizeStatus(status)
	i.updatedAt = now
	return true
}
