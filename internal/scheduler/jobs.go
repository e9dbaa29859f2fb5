package scheduler

import (
	"context"
	"time"

	"github.com/dealdesk/api-deals/internal/auth"
	"github.com/dealdesk/api-deals/internal/split"
	"gorm.io/gorm"
)

const (
	RefreshTokenPurgeEvery = time.Hour
	DraftPurgeEvery        = 10 * time.Minute
)

// RefreshTokenPurge deletes expired refresh tokens.
func RefreshTokenPurge(db *gorm.DB) Job {
	return Job{
		Name:  "refresh_token_purge",
		Every: RefreshTokenPurgeEvery,
		Run: func(ctx context.Context) (int64, error) {
			return auth.PurgeExpired(db.WithContext(ctx), time.Now())
		},
	}
}

// DraftPurge drops expired in-memory split drafts. Redis expires its own keys.
func DraftPurge(store *split.MemoryStore) Job {
	return Job{
		Name:  "split_draft_purge",
		Every: DraftPurgeEvery,
		Run: func(ctx context.Context) (int64, error) {
			return int64(store.Purge(ctx)), nil
		},
	}
}
