package note

import (
	"time"

	"gorm.io/gorm"
)

type Note struct {
	ID         uint      `gorm:"primaryKey"`
	DealID     uint      `gorm:"not null;index"`
	AuthorID   *uint     `gorm:"index"`
	AuthorName string    `gorm:"size:255"`
	Title      string    `gorm:"size:255;not null"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Note{})
}
