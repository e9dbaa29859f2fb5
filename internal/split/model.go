// internal/split/model.go
package split

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionSplit is a persisted split row of a schedule.
type CommissionSplit struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ScheduleID   uint            `gorm:"not null;index" json:"scheduleId"`
	Position     int             `gorm:"not null;default:0" json:"position"`
	AgentName    string          `gorm:"size:255;not null" json:"agentName"`
	AgentID      *uint           `gorm:"index" json:"agentId"`
	SplitPercent decimal.Decimal `gorm:"type:numeric(7,2);not null;default:0" json:"splitPercent"`
	SplitAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"splitAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Migrate creates the commission_splits table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&CommissionSplit{})
}

func toRows(list []CommissionSplit) []Split {
	out := make([]Split, 0, len(list))
	for _, s := range list {
		out = append(out, Split{
			AgentName:    s.AgentName,
			AgentID:      s.AgentID,
			SplitPercent: s.SplitPercent,
			SplitAmount:  s.SplitAmount,
		})
	}
	return out
}

func fromRows(scheduleID uint, rows []Split) []*CommissionSplit {
	out := make([]*CommissionSplit, 0, len(rows))
	for i, r := range rows {
		out = append(out, &CommissionSplit{
			ScheduleID:   scheduleID,
			Position:     i,
			AgentName:    r.AgentName,
			AgentID:      r.AgentID,
			SplitPercent: r.SplitPercent,
			SplitAmount:  r.SplitAmount,
		})
	}
	return out
}
