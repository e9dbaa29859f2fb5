// internal/auth/refresh_model.go
package auth

import (
	"time"

	"gorm.io/gorm"
)

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index"`
	FamilyID  string    `gorm:"index"`
	Hash      string    `gorm:"uniqueIndex"`
	IsAdmin   bool
	ExpiresAt time.Time `gorm:"index"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RefreshToken{})
}

// PurgeExpired deletes refresh tokens that expired or were revoked before now.
func PurgeExpired(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at < ? OR revoked_at < ?", now, now).Delete(&RefreshToken{})
	return res.RowsAffected, res.Error
}
