// Package shipmentrepo persists shipments and their tracking history.
package shipmentrepo

import (
	"context"
	"errors"

	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/core/domain/model/shipment"
	"tradeflow/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// GormShipmentRepository implements ports.ShipmentRepository using GORM.
type GormShipmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// NewGormShipmentRepository creates a new GORM shipment repository.
func NewGormShipmentRepository(db *gorm.DB, tracker aggregateTracker) *GormShipmentRepository {
	return &GormShipmentRepository{db: db, tracker: tracker}
}

// AddIfAbsent inserts the shipment unless one already exists for its order.
// The unique index on order_id decides the race between concurrent callers.
func (r *GormShipmentRepository) AddIfAbsent(ctx context.Context, s *shipment.Shipment) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}

	dto := fromDomain(s)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(&dto)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.tracker.TrackAggregate(s.ID(), s)
	return true, nil
}

func (r *GormShipmentRepository) Update(ctx context.Context, s *shipment.Shipment) error {
	if err := s.Validate(); err != nil {
		return err
	}

	dto := fromDomain(s)
	result := r.db.WithContext(ctx).Model(&ShipmentDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":          dto.Status,
		"carrier":         dto.Carrier,
		"tracking_number": dto.TrackingNumber,
		"metadata":        dto.Metadata,
		"updated_at":      dto.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("shipment", s.ID().String())
	}

	r.tracker.TrackAggregate(s.ID(), s)
	return nil
}

func (r *GormShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, "shipment", id.String(), "id = ?", id.Bytes())
}

func (r *GormShipmentRepository) GetByOrder(ctx context.Context, orderID kernel.UUID) (*shipment.Shipment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, "shipment for order", orderID.String(), "order_id = ?", orderID.Bytes())
}

func (r *GormShipmentRepository) AppendEvent(ctx context.Context, e shipment.Event) error {
	dto := eventFromDomain(e)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormShipmentRepository) ListEvents(ctx context.Context, shipmentID kernel.UUID) ([]shipment.Event, error) {
	var dtos []EventDTO
	err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID.Bytes()).
		Order("created_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	out := make([]shipment.Event, 0, len(dtos))
	for _, dto := range dtos {
		e, err := eventToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *GormShipmentRepository) first(
	ctx context.Context,
	param, id string,
	query string, args ...any,
) (*shipment.Shipment, error) {
	var dto ShipmentDTO
	if err := r.db.WithContext(ctx).Where(query, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(param, id)
		}
		return nil, err
	}
	return toDomain(dto)
}
