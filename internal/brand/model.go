package brand

import (
	"time"

	"gorm.io/gorm"
)

type Brand struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null;index" json:"name"`
	Industry   string    `gorm:"size:100" json:"industry"`
	Website    string    `gorm:"size:255" json:"website"`
	CostCenter string    `gorm:"size:100;index" json:"costCenter"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DealSummary is the short deal row shown on a brand page.
type DealSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Stage string `json:"stage"`
}

// Detail is a brand with its deals.
type Detail struct {
	Brand
	Deals []DealSummary `json:"deals"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Brand{})
}
