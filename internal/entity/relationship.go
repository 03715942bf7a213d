package entity

import "time"

// RelationshipCategory is the qualitative link type between two instruments.
type RelationshipCategory string

const (
	CategorySupplier       RelationshipCategory = "supplier"
	CategoryCustomer       RelationshipCategory = "customer"
	CategoryCompetitor     RelationshipCategory = "competitor"
	CategoryEcosystem      RelationshipCategory = "ecosystem"
	CategoryInfrastructure RelationshipCategory = "infrastructure"
	CategoryPartner        RelationshipCategory = "partner"
	CategoryCorrelated     RelationshipCategory = "correlated"
	CategoryInverse        RelationshipCategory = "inverse"
)

// InvertsImpact reports whether a move in the source instrument is expected
// to push the target the opposite way.
func (c RelationshipCategory) InvertsImpact() bool {
	return c == CategoryCompetitor || c == CategoryInverse
}

// RelationshipEdge is a directed edge from a primary-mover instrument to a
// related instrument. Edges are not required to be symmetric. A zero
// ImpactWeight means "use the category weight".
type RelationshipEdge struct {
	ID           uint                 `gorm:"primaryKey" json:"id"`
	Source       string               `gorm:"not null;index" json:"source"`
	Target       string               `gorm:"not null" json:"target"`
	Category     RelationshipCategory `gorm:"not null" json:"category"`
	ImpactWeight float64              `gorm:"not null;default:0" json:"impact_weight"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

func (RelationshipEdge) TableName() string {
	return "relationship_edges"
}
