// internal/product/model.go
package product

import (
	"time"

	"github.com/dealdesk/api-deals/internal/schedule"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a deliverable of a deal, paid out through its schedules.
type Product struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	DealID      uint                `gorm:"not null;index" json:"dealId"`
	Name        string              `gorm:"size:255;not null" json:"name"`
	Type        string              `gorm:"size:100" json:"type"`
	Description string              `gorm:"size:1000" json:"description"`
	Schedules   []schedule.Schedule `gorm:"foreignKey:ProductID" json:"schedules"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`

	TotalRevenue    decimal.Decimal `gorm:"-" json:"totalRevenue"`
	TotalCommission decimal.Decimal `gorm:"-" json:"totalCommission"`
	TotalTalent     decimal.Decimal `gorm:"-" json:"totalTalent"`
}

// Aggregate fills the totals from the loaded schedules.
func (p *Product) Aggregate() {
	p.TotalRevenue, p.TotalCommission, p.TotalTalent = decimal.Zero, decimal.Zero, decimal.Zero
	if p.Schedules == nil {
		p.Schedules = []schedule.Schedule{}
	}
	for _, s := range p.Schedules {
		p.TotalRevenue = p.TotalRevenue.Add(s.Revenue)
		p.TotalCommission = p.TotalCommission.Add(s.CommissionAmount)
		p.TotalTalent = p.TotalTalent.Add(s.TalentAmount)
	}
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.Aggregate()
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Product{})
}
