package repository

import (
	"context"

	"second-order-engine/internal/entity"

	"gorm.io/gorm"
)

type relationshipEdgeRepository struct {
	db *gorm.DB
}

// NewRelationshipEdgeRepository creates a gorm-backed edge repository.
func NewRelationshipEdgeRepository(db *gorm.DB) RelationshipEdgeRepository {
	return &relationshipEdgeRepository{db: db}
}

func (r *relationshipEdgeRepository) GetAll(ctx context.Context) ([]entity.RelationshipEdge, error) {
	var edges []entity.RelationshipEdge
	if err := r.db.WithContext(ctx).Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}
