package entity

import (
	"time"

	"gorm.io/datatypes"
)

// PositionStatus is the lifecycle state of a second-order position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Exit reasons recorded in the audit trail.
const (
	ExitReasonHoldingPeriod = "holding_period"
	ExitReasonStopLoss      = "stop_loss"
	ExitReasonTakeProfit    = "take_profit"
)

// Position is a live second-order position. The lifecycle manager
// exclusively owns the set of these; nothing else mutates them.
type Position struct {
	Ticker      string         `json:"ticker"`
	Direction   Action         `json:"direction"`
	Size        float64        `json:"size"` // fraction of portfolio
	EntryPrice  float64        `json:"entry_price"`
	StopPrice   float64        `json:"stop_price"`
	TargetPrice float64        `json:"target_price"`
	EntryTime   time.Time      `json:"entry_time"`
	Confidence  float64        `json:"confidence"`
	Rationale   string         `json:"rationale"`
	Status      PositionStatus `json:"status"`
}

// PositionAudit is the persisted record of a closed position. Closed
// positions are not kept in memory beyond this entry.
type PositionAudit struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Ticker     string         `gorm:"not null;index" json:"ticker"`
	Direction  string         `gorm:"not null" json:"direction"`
	Rationale  string         `json:"rationale"`
	Confidence float64        `json:"confidence"`
	EntryTime  time.Time      `gorm:"not null" json:"entry_time"`
	ExitTime   time.Time      `gorm:"not null" json:"exit_time"`
	ExitReason string         `gorm:"not null" json:"exit_reason"`
	Data       datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (PositionAudit) TableName() string {
	return "position_audits"
}
