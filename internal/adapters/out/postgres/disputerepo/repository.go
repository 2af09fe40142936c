// Package disputerepo persists disputes in the order_disputes table.
package disputerepo

import (
	"context"
	"errors"
	"time"

	"tradeflow/internal/core/domain/model/dispute"
	"tradeflow/internal/core/domain/model/kernel"
	"tradeflow/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DisputeDTO struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid"`
	OpenedBy   string            `gorm:"column:opened_by"`
	Role       string            `gorm:"column:role"`
	Reason     string            `gorm:"column:reason"`
	State      string            `gorm:"column:state"`
	Evidence   datatypes.JSONMap `gorm:"column:evidence;type:jsonb"`
	Resolution string            `gorm:"column:resolution"`
	OpenedAt   time.Time         `gorm:"column:opened_at"`
	ClosedAt   *time.Time        `gorm:"column:closed_at"`
}

func (DisputeDTO) TableName() string {
	return "order_disputes"
}

func fromDomain(d *dispute.Dispute) DisputeDTO {
	evidence := datatypes.JSONMap(d.Evidence())
	if evidence == nil {
		evidence = datatypes.JSONMap{}
	}
	return DisputeDTO{
		ID:         d.ID().Bytes(),
		OrderID:    d.OrderID().Bytes(),
		OpenedBy:   d.OpenedBy(),
		Role:       d.Role(),
		Reason:     d.Reason(),
		State:      string(d.State()),
		Evidence:   evidence,
		Resolution: d.Resolution(),
		OpenedAt:   d.OpenedAt(),
		ClosedAt:   d.ClosedAt(),
	}
}

func toDomain(dto DisputeDTO) (*dispute.Dispute, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	return dispute.RestoreDispute(
		id, orderID,
		dto.OpenedBy, dto.Role, dto.Reason,
		dispute.State(dto.State),
		dto.Evidence,
		dto.Resolution,
		dto.OpenedAt,
		dto.ClosedAt,
	)
}

// GormDisputeRepository implements ports.DisputeRepository using GORM.
type GormDisputeRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormDisputeRepository creates a new GORM dispute repository.
func NewGormDisputeRepository(db *gorm.DB, tracker aggregateTracker) *GormDisputeRepository {
	return &GormDisputeRepository{db: db, tracker: tracker}
}

func (r *GormDisputeRepository) Add(ctx context.Context, aggregate *dispute.Dispute) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDisputeRepository) Update(ctx context.Context, aggregate *dispute.Dispute) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&DisputeDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"state":      dto.State,
		"resolution": dto.Resolution,
		"evidence":   dto.Evidence,
		"closed_at":  dto.ClosedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("dispute", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDisputeRepository) Get(ctx context.Context, id kernel.UUID) (*dispute.Dispute, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DisputeDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("dispute", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// ListByOrder returns the order's disputes oldest first.
func (r *GormDisputeRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*dispute.Dispute, error) {
	var dtos []DisputeDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("opened_at, id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*dispute.Dispute, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
