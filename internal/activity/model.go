// internal/activity/model.go
package activity

import (
	"time"

	"gorm.io/gorm"
)

// Activity types shown in the deal feed.
const (
	TypeDealCreated        = "deal_created"
	TypeDealUpdated        = "deal_updated"
	TypeTalentsUpdated     = "talents_updated"
	TypeProductAdded       = "product_added"
	TypeProductUpdated     = "product_updated"
	TypeProductDeleted     = "product_deleted"
	TypeScheduleAdded      = "schedule_added"
	TypeScheduleUpdated    = "schedule_updated"
	TypeScheduleDeleted    = "schedule_deleted"
	TypePaymentRecorded    = "payment_recorded"
	TypeSplitsUpdated      = "splits_updated"
	TypeNoteAdded          = "note_added"
	TypeNoteUpdated        = "note_updated"
	TypeNoteDeleted        = "note_deleted"
	TypeAttachmentUploaded = "attachment_uploaded"
	TypeAttachmentDeleted  = "attachment_deleted"
	TypeDealExported       = "deal_exported"
)

// Activity is one entry of a deal's activity feed.
type Activity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	EventID      string         `gorm:"size:36;uniqueIndex" json:"eventId"`
	DealID       uint           `gorm:"not null;index" json:"dealId"`
	ActorID      *uint          `gorm:"index" json:"actorId"`
	ActivityType string         `gorm:"size:64;not null;index" json:"activityType"`
	Summary      string         `gorm:"size:500" json:"summary"`
	Metadata     map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
}

// Entry is what callers hand to the Recorder.
type Entry struct {
	DealID   uint
	ActorID  uint
	Type     string
	Summary  string
	Metadata map[string]any
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Activity{})
}
