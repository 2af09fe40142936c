// Package auditrepo writes and prunes the audit_log table.
package auditrepo

import (
	"context"
	"time"

	"tradeflow/internal/core/domain/model/audit"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EntryDTO struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Actor     string            `gorm:"column:actor"`
	Action    string            `gorm:"column:action"`
	Context   datatypes.JSONMap `gorm:"column:context;type:jsonb"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (EntryDTO) TableName() string {
	return "audit_log"
}

// GormAuditRepository implements ports.AuditRepository using GORM.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GORM audit repository.
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Record(ctx context.Context, entry audit.Entry) error {
	contextMap := datatypes.JSONMap(entry.Context)
	if contextMap == nil {
		contextMap = datatypes.JSONMap{}
	}
	dto := EntryDTO{
		ID:        entry.ID.Bytes(),
		Actor:     entry.Actor,
		Action:    entry.Action,
		Context:   contextMap,
		CreatedAt: entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormAuditRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&EntryDTO{})
	return result.RowsAffected, result.Error
}
