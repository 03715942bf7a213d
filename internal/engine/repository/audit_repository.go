package repository

import (
	"context"

	"second-order-engine/internal/entity"

	"gorm.io/gorm"
)

type positionAuditRepository struct {
	db *gorm.DB
}

// NewPositionAuditRepository creates a gorm-backed audit repository.
func NewPositionAuditRepository(db *gorm.DB) PositionAuditRepository {
	return &positionAuditRepository{db: db}
}

func (r *positionAuditRepository) Create(ctx context.Context, audit *entity.PositionAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *positionAuditRepository) GetRecent(ctx context.Context, limit int) ([]entity.PositionAudit, error) {
	var audits []entity.PositionAudit
	if err := r.db.WithContext(ctx).Order("exit_time DESC").Limit(limit).Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}
