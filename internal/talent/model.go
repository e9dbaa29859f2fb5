package talent

import (
	"time"

	"github.com/dealdesk/api-deals/internal/agent"
	"gorm.io/gorm"
)

// TalentClient is a represented talent. Its agents seed the default
// commission splits of every deal the talent is attached to.
type TalentClient struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"size:255;not null;index" json:"name"`
	Category        string        `gorm:"size:100" json:"category"`
	CostCenter      string        `gorm:"size:100;index" json:"costCenter"`
	CostCenterGroup string        `gorm:"size:100;index" json:"costCenterGroup"`
	Agents          []agent.Agent `gorm:"many2many:talent_agents" json:"agents"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&TalentClient{})
}
