package attachment

import (
	"time"

	"gorm.io/gorm"
)

// Attachment is a file stored with a deal. The content lives in the row.
type Attachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Key        string    `gorm:"size:36;uniqueIndex" json:"key"`
	DealID     uint      `gorm:"not null;index" json:"dealId"`
	FileName   string    `gorm:"size:255;not null" json:"fileName"`
	MimeType   string    `gorm:"size:100" json:"mimeType"`
	SizeBytes  int       `gorm:"not null" json:"sizeBytes"`
	Data       []byte    `gorm:"type:bytea" json:"-"`
	UploadedBy *uint     `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Attachment{})
}
