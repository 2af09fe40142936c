package paymentrepo

import (
	"context"
	"errors"
	"time"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/payment"
	"tradeflow/internal/core/ports"
	"tradeflow/internal/pkg/errs"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// webhookGuard matches a row by reference unless it already saw this payload.
const webhookGuard = "provider_ref = ? AND (webhook_digest IS NULL OR webhook_digest <> ?)"

// GormTransactionRepository implements ports.TransactionRepository using GORM.
type GormTransactionRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// NewGormTransactionRepository creates a new GORM ledger repository.
func NewGormTransactionRepository(db *gorm.DB, tracker aggregateTracker) *GormTransactionRepository {
	return &GormTransactionRepository{db: db, tracker: tracker}
}

func (r *GormTransactionRepository) Add(ctx context.Context, tx *payment.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	dto := transactionFromDomain(tx)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(tx.ID(), tx)
	return nil
}

func (r *GormTransactionRepository) Update(ctx context.Context, tx *payment.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	dto := transactionFromDomain(tx)
	result := r.db.WithContext(ctx).Model(&TransactionDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":       dto.Status,
		"provider_ref": dto.ProviderRef,
		"metadata":     dto.Metadata,
		"updated_at":   dto.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("payment transaction", tx.ID().String())
	}

	r.tracker.TrackAggregate(tx.ID(), tx)
	return nil
}

func (r *GormTransactionRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Transaction, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, "payment transaction", id.String(), "id = ?", id.Bytes())
}

func (r *GormTransactionRepository) GetByProviderRef(ctx context.Context, providerRef string) (*payment.Transaction, error) {
	return r.first(ctx, "provider ref", providerRef, "provider_ref = ?", providerRef)
}

func (r *GormTransactionRepository) ListByOrder(
	ctx context.Context,
	orderID kernel.UUID,
	kind payment.Type,
) ([]*payment.Transaction, error) {
	query := r.db.WithContext(ctx).Where("order_id = ?", orderID.Bytes())
	if kind != "" {
		query = query.Where("type = ?", string(kind))
	}

	var dtos []TransactionDTO
	if err := query.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*payment.Transaction, 0, len(dtos))
	for _, dto := range dtos {
		tx, err := transactionToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// ApplyWebhook is a single conditional UPDATE, so concurrent deliveries of
// the same payload apply at most once.
func (r *GormTransactionRepository) ApplyWebhook(
	ctx context.Context,
	update ports.WebhookUpdate,
) (*payment.Transaction, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&TransactionDTO{}).
		Where(webhookGuard, update.ProviderRef, update.Digest).
		Updates(webhookColumns(update))
	if result.Error != nil {
		return nil, false, result.Error
	}

	tx, err := r.GetByProviderRef(ctx, update.ProviderRef)
	if err != nil {
		return nil, false, err
	}
	return tx, result.RowsAffected > 0, nil
}

func (r *GormTransactionRepository) first(
	ctx context.Context,
	param, id string,
	query string, args ...any,
) (*payment.Transaction, error) {
	var dto TransactionDTO
	if err := r.db.WithContext(ctx).Where(query, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(param, id)
		}
		return nil, err
	}
	return transactionToDomain(dto)
}

// GormInvoiceRepository implements ports.InvoiceRepository using GORM.
type GormInvoiceRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// NewGormInvoiceRepository creates a new GORM membership invoice repository.
func NewGormInvoiceRepository(db *gorm.DB, tracker aggregateTracker) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db, tracker: tracker}
}

func (r *GormInvoiceRepository) Add(ctx context.Context, invoice *payment.MembershipInvoice) error {
	if err := invoice.Validate(); err != nil {
		return err
	}

	dto := invoiceFromDomain(invoice)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(invoice.ID(), invoice)
	return nil
}

func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *payment.MembershipInvoice) error {
	if err := invoice.Validate(); err != nil {
		return err
	}

	dto := invoiceFromDomain(invoice)
	result := r.db.WithContext(ctx).Model(&InvoiceDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":       dto.Status,
		"provider":     dto.Provider,
		"provider_ref": dto.ProviderRef,
		"checkout_url": dto.CheckoutURL,
		"metadata":     dto.Metadata,
		"paid_at":      dto.PaidAt,
		"updated_at":   dto.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("membership invoice", invoice.ID().String())
	}

	r.tracker.TrackAggregate(invoice.ID(), invoice)
	return nil
}

func (r *GormInvoiceRepository) Get(ctx context.Context, id kernel.UUID) (*payment.MembershipInvoice, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, "membership invoice", id.String(), "id = ?", id.Bytes())
}

func (r *GormInvoiceRepository) GetByProviderRef(ctx context.Context, providerRef string) (*payment.MembershipInvoice, error) {
	return r.first(ctx, "provider ref", providerRef, "provider_ref = ?", providerRef)
}

func (r *GormInvoiceRepository) ApplyWebhook(
	ctx context.Context,
	update ports.WebhookUpdate,
) (*payment.MembershipInvoice, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&InvoiceDTO{}).
		Where(webhookGuard, update.ProviderRef, update.Digest).
		Updates(webhookColumns(update))
	if result.Error != nil {
		return nil, false, result.Error
	}

	invoice, err := r.GetByProviderRef(ctx, update.ProviderRef)
	if err != nil {
		return nil, false, err
	}
	return invoice, result.RowsAffected > 0, nil
}

func (r *GormInvoiceRepository) first(
	ctx context.Context,
	param, id string,
	query string, args ...any,
) (*payment.MembershipInvoice, error) {
	var dto InvoiceDTO
	if err := r.db.WithContext(ctx).Where(query, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(param, id)
		}
		return nil, err
	}
	return invoiceToDomain(dto)
}

func webhookColumns(update ports.WebhookUpdate) map[string]any {
	return map[string]any{
		"status":          payment.NormalizeStatus(update.Status),
		"webhook_payload": datatypes.JSONMap(update.Payload),
		"webhook_digest":  update.Digest,
		"updated_at":      update.At,
	}
}

// GormMembershipActivator implements ports.MembershipActivator by upserting
// the memberships row of the user.
type GormMembershipActivator struct {
	db *gorm.DB
}

// NewGormMembershipActivator creates the writer for granted plans.
func NewGormMembershipActivator(db *gorm.DB) *GormMembershipActivator {
	return &GormMembershipActivator{db: db}
}

func (a *GormMembershipActivator) Activate(ctx context.Context, userID, planSlug string, at time.Time) error {
	dto := MembershipDTO{
		UserID:      userID,
		PlanSlug:    planSlug,
		ActivatedAt: at,
		UpdatedAt:   at,
	}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan_slug", "activated_at", "updated_at"}),
	}).Create(&dto).Error
}
