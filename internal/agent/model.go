package agent

import "gorm.io/gorm"

// Agent is a directory entry and a login. Administrators are agents with IsAdmin.
type Agent struct {
	gorm.Model
	Name              string `json:"name" gorm:"size:255;not null;index"`
	Email             string `json:"email" gorm:"size:255;uniqueIndex:idx_agents_email,where:email <> ''"`
	Title             string `json:"title" gorm:"size:255"`
	Agency            string `json:"agency" gorm:"size:255"`
	CostCenter        string `json:"costCenter" gorm:"size:100;index"`
	CostCenterGroup   string `json:"costCenterGroup" gorm:"size:100;index"`
	IsAdmin           bool   `json:"isAdmin" gorm:"not null;default:false"`
	PasswordHash      string `json:"-"`
	MustResetPassword bool   `json:"-"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Agent{})
}
